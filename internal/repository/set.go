package repository

import (
	"fmt"
	"sort"
	"strings"
)

// buildSet собирает "col = $n" для UPDATE. Имена колонок сверяются с allowed
// до попадания в текст запроса, значения уходят позиционными параметрами.
func buildSet(fields map[string]any, allowed map[string]bool) (string, []any, error) {
	cols := make([]string, 0, len(fields))
	for col := range fields {
		if !allowed[col] {
			return "", nil, fmt.Errorf("column %q is not updatable", col)
		}
		cols = append(cols, col)
	}
	sort.Strings(cols)

	sets := make([]string, 0, len(cols))
	args := make([]any, 0, len(cols))
	for _, col := range cols {
		args = append(args, fields[col])
		sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)))
	}

	return strings.Join(sets, ", "), args, nil
}
