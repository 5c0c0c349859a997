package graph

import (
	"context"

	"hnprep/internal/db"
)

// ForestFromDB loads a Forest from the live (not dead, not deleted) items in the database
func ForestFromDB(ctx context.Context, d *db.DB) (*Forest, error) {
	dbItems, err := d.LiveItems(ctx)
	if err != nil {
		return nil, err
	}

	items := make([]*ItemInfo, 0, len(dbItems))
	for _, it := range dbItems {
		var parent *int64
		if it.Parent != nil {
			p := *it.Parent
			parent = &p
		}
		title := ""
		if it.Title != nil {
			title = *it.Title
		}
		items = append(items, &ItemInfo{
			ID:     it.ID,
			Title:  title,
			Kind:   it.Type,
			Time:   it.Time,
			Parent: parent,
		})
	}

	return NewForest(items), nil
}
