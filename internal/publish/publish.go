package publish

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-git/go-git/v5"
	gitconfig "github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/go-git/go-git/v5/plumbing/transport/http"
)

// DefaultMessage is the commit message used when none is given.
const DefaultMessage = "Update gallery content"

// Config for the publish pipeline.
type Config struct {
	Remote      string // remote name, default "origin"
	AuthorName  string
	AuthorEmail string
	Token       string // optional HTTPS token
}

// Result describes what a publish did.
type Result struct {
	Committed bool   `json:"committed"`
	Commit    string `json:"commit,omitempty"`
	Branch    string `json:"branch"`
	Pushed    bool   `json:"pushed"`
	UpToDate  bool   `json:"up_to_date"`
	Message   string `json:"message"`
}

// Publisher stages, commits and pushes the gallery working tree.
type Publisher struct {
	dir    string
	config Config
	now    func() time.Time
}

// New returns a Publisher for the repository containing dir.
func New(dir string, config Config) *Publisher {
	if config.Remote == "" {
		config.Remote = "origin"
	}
	if config.AuthorName == "" {
		config.AuthorName = "Gallery Admin"
	}
	if config.AuthorEmail == "" {
		config.AuthorEmail = "gallery@localhost"
	}
	return &Publisher{dir: dir, config: config, now: time.Now}
}

// Publish stages every change, commits it when there is anything to commit,
// and pushes the current branch. A clean tree and an up-to-date remote are
// both successes.
func (p *Publisher) Publish(ctx context.Context, message string) (*Result, error) {
	if message == "" {
		message = DefaultMessage
	}

	repo, err := git.PlainOpenWithOptions(p.dir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, fmt.Errorf("open repository: %w", err)
	}
	wt, err := repo.Worktree()
	if err != nil {
		return nil, fmt.Errorf("worktree: %w", err)
	}

	if err := wt.AddWithOptions(&git.AddOptions{All: true}); err != nil {
		return nil, fmt.Errorf("stage changes: %w", err)
	}
	status, err := wt.Status()
	if err != nil {
		return nil, fmt.Errorf("status: %w", err)
	}

	result := &Result{}
	if status.IsClean() {
		result.Message = "nothing to commit, working tree clean"
	} else {
		hash, err := wt.Commit(message, &git.CommitOptions{
			Author: &object.Signature{
				Name:  p.config.AuthorName,
				Email: p.config.AuthorEmail,
				When:  p.now(),
			},
		})
		if err != nil {
			return nil, fmt.Errorf("commit: %w", err)
		}
		result.Committed = true
		result.Commit = hash.String()
		result.Message = message
	}

	head, err := repo.Head()
	if err != nil {
		return nil, fmt.Errorf("resolve HEAD: %w", err)
	}
	result.Branch = head.Name().Short()

	if _, err := repo.Remote(p.config.Remote); err != nil {
		return nil, fmt.Errorf("remote %q: %w", p.config.Remote, err)
	}

	refSpec := gitconfig.RefSpec(head.Name().String() + ":" + head.Name().String())
	err = repo.PushContext(ctx, &git.PushOptions{
		RemoteName: p.config.Remote,
		RefSpecs:   []gitconfig.RefSpec{refSpec},
		Auth:       p.auth(),
	})
	switch {
	case errors.Is(err, git.NoErrAlreadyUpToDate):
		result.UpToDate = true
	case err != nil:
		return nil, fmt.Errorf("push to %s: %w", p.config.Remote, err)
	default:
		result.Pushed = true
	}
	return result, nil
}

func (p *Publisher) auth() transport.AuthMethod {
	if p.config.Token == "" {
		return nil
	}
	return &http.BasicAuth{Username: "token", Password: p.config.Token}
}
