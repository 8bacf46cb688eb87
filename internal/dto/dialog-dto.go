package dto

// Dialog describes a confirmation or input prompt.
type Dialog struct {
	Title        string
	Text         string
	InputLabel   string
	Placeholder  string
	ConfirmLabel string
}
