package layout

// PageCursor tracks the vertical offset within the current page. A budget
// of zero or less is unbounded, as on continuous receipt paper.
type PageCursor struct {
	offset     float64
	budget     float64
	pages      int
	overflowed bool
}

// NewPageCursor creates a cursor at the top of the first page
func NewPageCursor(budget float64) *PageCursor {
	return &PageCursor{budget: budget, pages: 1}
}

// Offset returns the distance from the page origin
func (c *PageCursor) Offset() float64 {
	return c.offset
}

// Pages returns the number of pages started so far
func (c *PageCursor) Pages() int {
	return c.pages
}

// Bounded reports whether the cursor has a page budget
func (c *PageCursor) Bounded() bool {
	return c.budget > 0
}

// Budget returns the page budget
func (c *PageCursor) Budget() float64 {
	return c.budget
}

// Fits reports whether a line of height h fits on the current page
func (c *PageCursor) Fits(h float64) bool {
	return !c.Bounded() || c.offset+h <= c.budget
}

// Advance moves down by delta and reports whether the cursor is now past
// the page budget
func (c *PageCursor) Advance(delta float64) bool {
	c.offset += delta
	if c.Bounded() && c.offset > c.budget {
		c.overflowed = true
		return true
	}
	return false
}

// Overflowed reports whether any advance went past the budget
func (c *PageCursor) Overflowed() bool {
	return c.overflowed
}

// NewPage resets the cursor to the top of a fresh page
func (c *PageCursor) NewPage() {
	c.offset = 0
	c.pages++
}
