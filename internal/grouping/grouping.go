// Package grouping joins a flat workflow list against a folder config.
package grouping

import (
	"github.com/workfold/workfold/internal/foldercfg"
	"github.com/workfold/workfold/internal/forge"
)

// Folder is one named bucket of grouped workflows.
type Folder struct {
	Name      string           `json:"name"`
	Workflows []forge.Workflow `json:"workflows"`
}

// Grouping partitions a workflow list: every input workflow appears in
// exactly one folder or in Uncategorized.
type Grouping struct {
	// Folders are ordered by first match, following config declaration order
	// of the winning claims. Folders with no matching workflow are absent.
	Folders []Folder `json:"folders"`
	// Uncategorized holds workflows no folder claims, in source order.
	Uncategorized []forge.Workflow `json:"uncategorized"`
}

// Group assigns workflows to folders by filename. The lookup is built in
// config declaration order, so a later folder's claim on a filename
// overwrites an earlier one's. Pure: identical inputs yield identical output.
func Group(cfg *foldercfg.Config, workflows []forge.Workflow) *Grouping {
	byFilename := make(map[string]string)
	if cfg != nil {
		for _, f := range cfg.Folders {
			for _, w := range f.Workflows {
				byFilename[w] = f.Name
			}
		}
	}

	out := &Grouping{}
	index := make(map[string]int) // folder name -> position in out.Folders

	for _, wf := range workflows {
		folderName, ok := byFilename[wf.Filename]
		if !ok {
			out.Uncategorized = append(out.Uncategorized, wf)
			continue
		}

		i, seen := index[folderName]
		if !seen {
			i = len(out.Folders)
			index[folderName] = i
			out.Folders = append(out.Folders, Folder{Name: folderName})
		}
		out.Folders[i].Workflows = append(out.Folders[i].Workflows, wf)
	}

	return out
}

// Total returns the number of workflows across all buckets.
func (g *Grouping) Total() int {
	n := len(g.Uncategorized)
	for _, f := range g.Folders {
		n += len(f.Workflows)
	}
	return n
}
