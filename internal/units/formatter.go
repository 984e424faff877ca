package units

// Formatter renders values of one quantity (distance or area) using a unit
// table and format options. It is immutable once built.
type Formatter struct {
	table Table
	opts  Options
}

// NewFormatter validates table and opts and returns a Formatter holding
// private copies of both.
func NewFormatter(table Table, opts Options) (*Formatter, error) {
	if err := table.Validate(); err != nil {
		return nil, err
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return &Formatter{table: table.Clone(), opts: opts.Clone()}, nil
}

// Unit returns the unit selected for value.
func (f *Formatter) Unit(value float64) (name string, size float64) {
	return f.table.Select(value)
}

// String selects the best unit for value and formats it.
func (f *Formatter) String(value float64) string {
	name, size := f.table.Select(value)
	return Format(value, name, size, f.opts)
}

// Table returns a copy of the unit table.
func (f *Formatter) Table() Table {
	return f.table.Clone()
}
