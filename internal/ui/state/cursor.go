package state

// moveCursorTo puts the cursor on row i, clamped to the visible rows, and
// reports whether it moved.
func (l *Level) moveCursorTo(i int) bool {
	if len(l.Items) == 0 {
		l.Cursor = 0
		return false
	}
	prev := l.Cursor
	l.Cursor = min(max(i, 0), len(l.Items)-1)
	return l.Cursor != prev
}

func (l *Level) MoveCursorUp() bool   { return l.moveCursorTo(l.Cursor - 1) }
func (l *Level) MoveCursorDown() bool { return l.moveCursorTo(l.Cursor + 1) }
func (l *Level) MoveCursorHome() bool { return l.moveCursorTo(0) }
func (l *Level) MoveCursorEnd() bool  { return l.moveCursorTo(len(l.Items) - 1) }

// MoveCursorPageUp moves one screenful of height rows up. A non-positive
// height pages over the whole list.
func (l *Level) MoveCursorPageUp(height int) bool {
	return l.moveCursorTo(max(l.Cursor, 0) - l.page(height))
}

// MoveCursorPageDown is the reverse of MoveCursorPageUp.
func (l *Level) MoveCursorPageDown(height int) bool {
	return l.moveCursorTo(max(l.Cursor, 0) + l.page(height))
}

func (l *Level) page(height int) int {
	if height <= 0 || height > len(l.Items) {
		return len(l.Items)
	}
	return height
}

// EnsureCursorVisible scrolls the viewport of height rows so the cursor is
// on screen, without scrolling past the last row.
func (l *Level) EnsureCursorVisible(height int) {
	l.clampCursor()
	if len(l.Items) == 0 || height <= 0 {
		l.ViewportOffset = 0
		return
	}
	lastOffset := max(len(l.Items)-height, 0)
	off := min(max(l.ViewportOffset, 0), lastOffset)
	switch {
	case l.Cursor < off:
		off = l.Cursor
	case l.Cursor >= off+height:
		off = l.Cursor - height + 1
	}
	l.ViewportOffset = off
}
