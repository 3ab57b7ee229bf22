package cart

import "savora-be/internal/catalog"

// LineViews maps cart lines into the resolver's input shape.
func LineViews(lines []*Line) []catalog.LineView {
	views := make([]catalog.LineView, 0, len(lines))

	for _, l := range lines {
		v := catalog.LineView{
			Ref:        l.Ref,
			Snapshot:   l.Snapshot,
			PriceAtAdd: l.PriceAtAdd,
		}
		if l.Snapshot != nil {
			v.FallbackName = &l.Snapshot.Name
		}
		views = append(views, v)
	}
	return views
}
