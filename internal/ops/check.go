package ops

import (
	"context"
	"fmt"
)

// Issue kinds reported by Check.
const (
	IssueMissingDir      = "missing_dir"
	IssueMissingDocument = "missing_document"
	IssueMissingPhoto    = "missing_photo"
	IssueOrphanPhoto     = "orphan_photo"
	IssueStaleLabels     = "stale_labels"
	IssueMissingRoot     = "missing_root"
	IssueDecode          = "decode"
)

// Issue is one inconsistency between the manifest and the gallery tree.
type Issue struct {
	Kind    string `json:"kind"`
	Page    string `json:"page,omitempty"`
	File    string `json:"file,omitempty"`
	Message string `json:"message"`
}

// CheckOutput is a consistency report.
type CheckOutput struct {
	OK     bool    `json:"ok"`
	Pages  int     `json:"pages"`
	Photos int     `json:"photos"`
	Issues []Issue `json:"issues"`
}

// Check compares the manifest with the files on disk without changing anything.
// Stale labels and documents are fixed by Regenerate; missing and orphan
// photos need an operator decision.
func (s *Service) Check(ctx context.Context) (*CheckOutput, error) {
	out := &CheckOutput{Issues: []Issue{}}
	err := s.view(func() error {
		site, diags, err := s.store.LoadSite()
		if err != nil {
			return err
		}
		for _, d := range diags {
			out.Issues = append(out.Issues, Issue{Kind: IssueDecode, Message: fmt.Sprintf("line %d: %s", d.Line, d.Message)})
		}
		if _, ok, err := s.store.ReadDocument(s.store.RootIndexPath()); err != nil {
			return err
		} else if !ok {
			out.Issues = append(out.Issues, Issue{Kind: IssueMissingRoot, Message: "root document is missing"})
		}

		out.Pages = len(site.Pages)
		for _, p := range site.Pages {
			out.Photos += len(p.Photos)
			if !s.store.PageDirExists(p.ID) {
				out.Issues = append(out.Issues, Issue{Kind: IssueMissingDir, Page: p.ID, Message: "page directory is missing"})
				continue
			}
			if _, ok, err := s.store.ReadDocument(s.store.PageIndexPath(p.ID)); err != nil {
				return err
			} else if !ok {
				out.Issues = append(out.Issues, Issue{Kind: IssueMissingDocument, Page: p.ID, Message: "page document is missing"})
			}

			artifact, _, err := s.store.ReadDocument(s.store.LabelsPath(p.ID))
			if err != nil {
				return err
			}
			if artifact != s.store.RenderLabels(p) {
				out.Issues = append(out.Issues, Issue{Kind: IssueStaleLabels, Page: p.ID, Message: "labels differ from the manifest"})
			}

			files, err := s.store.ListPhotos(p.ID)
			if err != nil {
				return err
			}
			onDisk := make(map[string]bool, len(files))
			for _, f := range files {
				onDisk[f] = true
			}
			for _, ph := range p.Photos {
				if !onDisk[ph.Filename] {
					out.Issues = append(out.Issues, Issue{Kind: IssueMissingPhoto, Page: p.ID, File: ph.Filename, Message: "listed photo has no file"})
				}
				delete(onDisk, ph.Filename)
			}
			for _, f := range files {
				if onDisk[f] {
					out.Issues = append(out.Issues, Issue{Kind: IssueOrphanPhoto, Page: p.ID, File: f, Message: "photo file is not listed"})
				}
			}
		}
		out.OK = len(out.Issues) == 0
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
