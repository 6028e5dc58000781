package probe

// HTTP status code constants.
const (
	StatusOK                  = 200
	StatusUnprocessableEntity = 422
)

// Worker configuration constants.
const (
	WorkerChannelMultiplier = 2
)

// Runner configuration constants.
const (
	maxTopEmotions  = 3
	historyLimit    = 5
	maxFailuresKept = 20
)
