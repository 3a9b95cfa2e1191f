package store

import (
	"context"
	"os"
	"sort"

	"github.com/samber/lo"

	"github.com/rcliao/tako/internal/model"
)

// Stats holds module collection statistics.
type Stats struct {
	DBPath         string          `json:"db_path"`
	DBSizeBytes    int64           `json:"db_size_bytes"`
	TotalModules   int             `json:"total_modules"`
	EnabledModules int             `json:"enabled_modules"`
	RedModules     int             `json:"red_modules"`
	GreenModules   int             `json:"green_modules"`
	Categories     []CategoryStats `json:"categories"`
}

// CategoryStats holds per-category counts.
type CategoryStats struct {
	Category string `json:"category"`
	Count    int    `json:"count"`
	Enabled  int    `json:"enabled"`
}

// CollectStats returns statistics for the stored collection.
func CollectStats(ctx context.Context, s Store, dbPath string) (*Stats, error) {
	st := &Stats{DBPath: dbPath}

	if info, err := os.Stat(dbPath); err == nil {
		st.DBSizeBytes = info.Size()
	}

	modules, err := s.ListAllModules(ctx)
	if err != nil {
		return st, err
	}

	st.TotalModules = len(modules)
	st.EnabledModules = lo.CountBy(modules, func(m model.Module) bool { return m.Enabled })
	st.RedModules = lo.CountBy(modules, func(m model.Module) bool { return m.PAP == model.PAPRed })
	st.GreenModules = lo.CountBy(modules, func(m model.Module) bool { return m.PAP == model.PAPGreen })

	for category, members := range lo.GroupBy(modules, func(m model.Module) string { return m.Category }) {
		st.Categories = append(st.Categories, CategoryStats{
			Category: category,
			Count:    len(members),
			Enabled:  lo.CountBy(members, func(m model.Module) bool { return m.Enabled }),
		})
	}
	sort.Slice(st.Categories, func(i, j int) bool {
		if st.Categories[i].Count != st.Categories[j].Count {
			return st.Categories[i].Count > st.Categories[j].Count
		}
		return st.Categories[i].Category < st.Categories[j].Category
	})

	return st, nil
}
