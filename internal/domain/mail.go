package domain

const (
	MailTypeCreateUser         = "create_user"
	MailTypeExperimentFinished = "experiment_finished"
)

type MailMessage struct {
	Type string `json:"type"`
	To   string `json:"to"`
	Data any    `json:"data"`
}

type CreateUserMailData struct {
	FullName string `json:"fullName"`
	Username string `json:"username"`
	Password string `json:"password"`
}

type ExperimentFinishedMailData struct {
	FullName        string  `json:"fullName"`
	ExperimentID    int64   `json:"experimentID"`
	ExperimentName  string  `json:"experimentName"`
	Succeeded       bool    `json:"succeeded"`
	Error           string  `json:"error"`
	BestCombination string  `json:"bestCombination"`
	BestFinalMean   float64 `json:"bestFinalMean"`
}
