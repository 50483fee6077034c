package lower

import "strconv"

// NameSource hands out `_0`, `_1`, ... for temporaries of one function.
type NameSource struct {
	Next int
}

func (n *NameSource) Fresh() string {
	name := "_" + strconv.Itoa(n.Next)
	n.Next++
	return name
}
