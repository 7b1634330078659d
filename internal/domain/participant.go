package domain

// ParticipantList is the ordered set of display names shown for a room.
// Updates replace it wholesale; duplicates are kept as sent.
type ParticipantList struct {
	names []string
}

func (l *ParticipantList) Replace(names []string) {
	l.names = append(make([]string, 0, len(names)), names...)
}

func (l *ParticipantList) Names() []string {
	return append([]string(nil), l.names...)
}

func (l *ParticipantList) Len() int { return len(l.names) }
