package export

import "fmt"

// Section is a titled group of rows, one per planned day.
type Section struct {
	Heading string
	Rows    [][]string
}

// Dataset defines tabular export content.
type Dataset struct {
	Title    string
	Headers  []string
	Sections []Section
}

func (d Dataset) validate(kind string) error {
	if len(d.Headers) == 0 {
		return fmt.Errorf("%s requires at least one header", kind)
	}
	for _, section := range d.Sections {
		for i, row := range section.Rows {
			if len(row) != len(d.Headers) {
				return fmt.Errorf("%s: row %d of %q has %d cells, want %d", kind, i, section.Heading, len(row), len(d.Headers))
			}
		}
	}
	return nil
}

// RowCount returns the number of rows across all sections.
func (d Dataset) RowCount() int {
	total := 0
	for _, section := range d.Sections {
		total += len(section.Rows)
	}
	return total
}
