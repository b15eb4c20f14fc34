package facet

// OptionList is an in-memory Control
type OptionList struct {
	Options  []Option `json:"options"`
	Disabled bool     `json:"disabled"`
}

// NewOptionList returns a disabled, empty list
func NewOptionList() *OptionList {
	return &OptionList{Disabled: true}
}

func (l *OptionList) Add(opt Option) {
	l.Options = append(l.Options, opt)
}

func (l *OptionList) SetDisabled(disabled bool) {
	l.Disabled = disabled
}

// Labels returns option labels in order
func (l *OptionList) Labels() []string {
	labels := make([]string, len(l.Options))
	for i, o := range l.Options {
		labels[i] = o.Label
	}
	return labels
}
