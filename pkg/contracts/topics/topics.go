package topics

const (
	// Rifa
	BetConfirmed = "raffle_bet_confirmed"
	RoundEnded   = "raffle_round_ended"

	// DLQ do journal
	JournalDLQ = "raffle_journal_dlq"
)
