// Package versions keeps the version history of every project in its own git
// repository. Each commit stores the manuscript as a single JSON file, and
// branches are ordinary git branches, so drafts can be forked and merged back
// with the merge engine.
package versions

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/storage/memory"

	"github.com/oogwaaay/novel-ai-platform-sub002/internal/compress"
)

// DefaultBranch is created with every project.
const DefaultBranch = "main"

const (
	contentFile     = "manuscript.json"
	anonymousAuthor = "writer"
)

var (
	ErrProjectNotFound = errors.New("project not found")
	ErrProjectExists   = errors.New("project already exists")
	ErrBranchNotFound  = errors.New("branch not found")
	ErrCommitNotFound  = errors.New("commit not found")
	ErrNoChanges       = errors.New("no changes to commit")
	ErrInvalidName     = errors.New("invalid project or branch name")
)

var (
	projectName = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]{0,63}$`)
	branchName  = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._/-]{0,99}$`)
)

// Content is what a version stores.
type Content struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

// CommitInfo describes one version.
type CommitInfo struct {
	Hash      string    `json:"hash"`
	Message   string    `json:"message"`
	Author    string    `json:"author"`
	CreatedAt time.Time `json:"created_at"`
	Words     int       `json:"words"`
}

// Service manages project repositories. With an empty base directory the
// repositories live in memory for the life of the process.
type Service struct {
	baseDir string

	mu    sync.Mutex
	locks map[string]*sync.Mutex
	repos map[string]*git.Repository
}

func New(baseDir string) *Service {
	return &Service{
		baseDir: baseDir,
		locks:   make(map[string]*sync.Mutex),
		repos:   make(map[string]*git.Repository),
	}
}

// CreateProject initializes a repository whose main branch holds initial.
func (s *Service) CreateProject(projectID string, initial Content, author string) (CommitInfo, error) {
	if !projectName.MatchString(projectID) {
		return CommitInfo{}, fmt.Errorf("project %q: %w", projectID, ErrInvalidName)
	}
	lock := s.projectLock(projectID)
	lock.Lock()
	defer lock.Unlock()

	repo, err := s.initRepo(projectID)
	if err != nil {
		return CommitInfo{}, err
	}
	info, err := createMain(repo, initial, author)
	if err != nil {
		s.forget(projectID)
		return CommitInfo{}, err
	}
	return info, nil
}

func createMain(repo *git.Repository, initial Content, author string) (CommitInfo, error) {
	// Point HEAD at main before the first commit so no master branch appears.
	head := plumbing.NewSymbolicReference(plumbing.HEAD, plumbing.NewBranchReferenceName(DefaultBranch))
	if err := repo.Storer.SetReference(head); err != nil {
		return CommitInfo{}, fmt.Errorf("set HEAD: %w", err)
	}

	worktree, err := repo.Worktree()
	if err != nil {
		return CommitInfo{}, fmt.Errorf("open worktree: %w", err)
	}
	hash, err := writeAndCommit(worktree, initial, author, "Create project", nil)
	if err != nil {
		return CommitInfo{}, err
	}
	return commitInfo(repo, hash)
}

// CreateBranch forks name from the head of from. It does nothing when name
// already exists.
func (s *Service) CreateBranch(projectID, name, from string) error {
	if !validBranch(name) {
		return fmt.Errorf("branch %q: %w", name, ErrInvalidName)
	}
	lock := s.projectLock(projectID)
	lock.Lock()
	defer lock.Unlock()

	repo, err := s.openRepo(projectID)
	if err != nil {
		return err
	}
	ref := plumbing.NewBranchReferenceName(name)
	if _, err := repo.Reference(ref, true); err == nil {
		return nil
	}
	fromHash, err := branchHead(repo, from)
	if err != nil {
		return err
	}
	if err := repo.Storer.SetReference(plumbing.NewHashReference(ref, fromHash)); err != nil {
		return fmt.Errorf("create branch ref: %w", err)
	}
	return nil
}

// Commit stores content as a new version on branch.
func (s *Service) Commit(projectID, branch string, content Content, author, message string) (CommitInfo, error) {
	lock := s.projectLock(projectID)
	lock.Lock()
	defer lock.Unlock()

	repo, err := s.openRepo(projectID)
	if err != nil {
		return CommitInfo{}, err
	}
	hash, err := commitTo(repo, branch, content, author, message, nil)
	if err != nil {
		return CommitInfo{}, err
	}
	return commitInfo(repo, hash)
}

// Head returns the latest version on branch.
func (s *Service) Head(projectID, branch string) (Content, CommitInfo, error) {
	lock := s.projectLock(projectID)
	lock.Lock()
	defer lock.Unlock()

	repo, err := s.openRepo(projectID)
	if err != nil {
		return Content{}, CommitInfo{}, err
	}
	hash, err := branchHead(repo, branch)
	if err != nil {
		return Content{}, CommitInfo{}, err
	}
	c, err := repo.CommitObject(hash)
	if err != nil {
		return Content{}, CommitInfo{}, fmt.Errorf("load commit: %w", err)
	}
	content, err := readContent(c)
	if err != nil {
		return Content{}, CommitInfo{}, err
	}
	return content, toCommitInfo(c, content), nil
}

// At returns the content of a commit. Abbreviated hashes are accepted.
func (s *Service) At(projectID, hash string) (Content, error) {
	lock := s.projectLock(projectID)
	lock.Lock()
	defer lock.Unlock()

	repo, err := s.openRepo(projectID)
	if err != nil {
		return Content{}, err
	}
	c, err := resolveCommit(repo, hash)
	if err != nil {
		return Content{}, err
	}
	return readContent(c)
}

// History lists versions reachable from branch, newest first. A limit of
// zero or less returns everything.
func (s *Service) History(projectID, branch string, limit int) ([]CommitInfo, error) {
	lock := s.projectLock(projectID)
	lock.Lock()
	defer lock.Unlock()

	repo, err := s.openRepo(projectID)
	if err != nil {
		return nil, err
	}
	hash, err := branchHead(repo, branch)
	if err != nil {
		return nil, err
	}

	iter, err := repo.Log(&git.LogOptions{From: hash})
	if err != nil {
		return nil, fmt.Errorf("read log: %w", err)
	}
	defer iter.Close()

	var items []CommitInfo
	err = iter.ForEach(func(c *object.Commit) error {
		content, err := readContent(c)
		if err != nil {
			return err
		}
		items = append(items, toCommitInfo(c, content))
		if limit > 0 && len(items) >= limit {
			return io.EOF
		}
		return nil
	})
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("iterate log: %w", err)
	}
	return items, nil
}

// Branches lists branch names in lexical order.
func (s *Service) Branches(projectID string) ([]string, error) {
	lock := s.projectLock(projectID)
	lock.Lock()
	defer lock.Unlock()

	repo, err := s.openRepo(projectID)
	if err != nil {
		return nil, err
	}
	iter, err := repo.Branches()
	if err != nil {
		return nil, fmt.Errorf("list branches: %w", err)
	}
	var names []string
	err = iter.ForEach(func(ref *plumbing.Reference) error {
		names = append(names, ref.Name().Short())
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list branches: %w", err)
	}
	sort.Strings(names)
	return names, nil
}

func (s *Service) projectLock(projectID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.locks[projectID]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[projectID] = lock
	}
	return lock
}

func (s *Service) initRepo(projectID string) (*git.Repository, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.repos[projectID]; ok {
		return nil, fmt.Errorf("project %q: %w", projectID, ErrProjectExists)
	}

	var (
		repo *git.Repository
		err  error
	)
	if s.baseDir == "" {
		repo, err = git.Init(memory.NewStorage(), memfs.New())
	} else {
		path := filepath.Join(s.baseDir, projectID)
		if _, statErr := os.Stat(path); statErr == nil {
			return nil, fmt.Errorf("project %q: %w", projectID, ErrProjectExists)
		} else if !errors.Is(statErr, os.ErrNotExist) {
			return nil, fmt.Errorf("stat repo path: %w", statErr)
		}
		if err := os.MkdirAll(path, 0o755); err != nil {
			return nil, fmt.Errorf("create repo dir: %w", err)
		}
		repo, err = git.PlainInit(path, false)
	}
	if err != nil {
		return nil, fmt.Errorf("init repo: %w", err)
	}
	s.repos[projectID] = repo
	return repo, nil
}

// forget drops a half-created project.
func (s *Service) forget(projectID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.repos, projectID)
	if s.baseDir != "" {
		os.RemoveAll(filepath.Join(s.baseDir, projectID))
	}
}

func (s *Service) openRepo(projectID string) (*git.Repository, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if repo, ok := s.repos[projectID]; ok {
		return repo, nil
	}
	if s.baseDir == "" || !projectName.MatchString(projectID) {
		return nil, fmt.Errorf("project %q: %w", projectID, ErrProjectNotFound)
	}
	repo, err := git.PlainOpen(filepath.Join(s.baseDir, projectID))
	if errors.Is(err, git.ErrRepositoryNotExists) {
		return nil, fmt.Errorf("project %q: %w", projectID, ErrProjectNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("open repo: %w", err)
	}
	s.repos[projectID] = repo
	return repo, nil
}

func validBranch(name string) bool {
	return branchName.MatchString(name) &&
		!strings.Contains(name, "..") &&
		!strings.HasSuffix(name, "/") &&
		!strings.HasSuffix(name, ".lock")
}

func branchHead(repo *git.Repository, branch string) (plumbing.Hash, error) {
	ref, err := repo.Reference(plumbing.NewBranchReferenceName(branch), true)
	if errors.Is(err, plumbing.ErrReferenceNotFound) {
		return plumbing.ZeroHash, fmt.Errorf("branch %q: %w", branch, ErrBranchNotFound)
	}
	if err != nil {
		return plumbing.ZeroHash, fmt.Errorf("resolve branch %q: %w", branch, err)
	}
	return ref.Hash(), nil
}

// commitTo checks out branch and commits content on top of it. Extra parents
// turn the commit into a merge commit; the branch head is always the first
// parent.
func commitTo(repo *git.Repository, branch string, content Content, author, message string, extraParents []plumbing.Hash) (plumbing.Hash, error) {
	headHash, err := branchHead(repo, branch)
	if err != nil {
		return plumbing.ZeroHash, err
	}
	worktree, err := repo.Worktree()
	if err != nil {
		return plumbing.ZeroHash, fmt.Errorf("open worktree: %w", err)
	}
	err = worktree.Checkout(&git.CheckoutOptions{
		Branch: plumbing.NewBranchReferenceName(branch),
		Force:  true,
	})
	if err != nil {
		return plumbing.ZeroHash, fmt.Errorf("checkout branch %q: %w", branch, err)
	}

	var parents []plumbing.Hash
	if len(extraParents) > 0 {
		parents = append([]plumbing.Hash{headHash}, extraParents...)
	}
	return writeAndCommit(worktree, content, author, message, parents)
}

func writeAndCommit(worktree *git.Worktree, content Content, author, message string, parents []plumbing.Hash) (plumbing.Hash, error) {
	payload, err := json.MarshalIndent(content, "", "  ")
	if err != nil {
		return plumbing.ZeroHash, fmt.Errorf("marshal content: %w", err)
	}
	if err := util.WriteFile(worktree.Filesystem, contentFile, append(payload, '\n'), 0o644); err != nil {
		return plumbing.ZeroHash, fmt.Errorf("write %s: %w", contentFile, err)
	}
	if _, err := worktree.Add(contentFile); err != nil {
		return plumbing.ZeroHash, fmt.Errorf("git add: %w", err)
	}

	if message == "" {
		message = "Update manuscript"
	}
	if author == "" {
		author = anonymousAuthor
	}
	hash, err := worktree.Commit(message, &git.CommitOptions{
		AllowEmptyCommits: len(parents) > 1,
		Parents:           parents,
		Author: &object.Signature{
			Name:  author,
			Email: authorEmail(author),
			When:  time.Now(),
		},
	})
	if errors.Is(err, git.ErrEmptyCommit) {
		return plumbing.ZeroHash, ErrNoChanges
	}
	if err != nil {
		return plumbing.ZeroHash, fmt.Errorf("commit: %w", err)
	}
	return hash, nil
}

func resolveCommit(repo *git.Repository, hash string) (*object.Commit, error) {
	var h plumbing.Hash
	if len(hash) == 40 {
		h = plumbing.NewHash(hash)
	} else {
		resolved, err := repo.ResolveRevision(plumbing.Revision(hash))
		if err != nil {
			return nil, fmt.Errorf("commit %q: %w", hash, ErrCommitNotFound)
		}
		h = *resolved
	}
	c, err := repo.CommitObject(h)
	if errors.Is(err, plumbing.ErrObjectNotFound) {
		return nil, fmt.Errorf("commit %q: %w", hash, ErrCommitNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("read commit %q: %w", hash, err)
	}
	return c, nil
}

func readContent(c *object.Commit) (Content, error) {
	file, err := c.File(contentFile)
	if err != nil {
		return Content{}, fmt.Errorf("load %s from %s: %w", contentFile, c.Hash, err)
	}
	raw, err := file.Contents()
	if err != nil {
		return Content{}, fmt.Errorf("read %s: %w", contentFile, err)
	}
	var content Content
	if err := json.Unmarshal([]byte(raw), &content); err != nil {
		return Content{}, fmt.Errorf("decode %s: %w", contentFile, err)
	}
	return content, nil
}

func commitInfo(repo *git.Repository, hash plumbing.Hash) (CommitInfo, error) {
	c, err := repo.CommitObject(hash)
	if err != nil {
		return CommitInfo{}, fmt.Errorf("read commit: %w", err)
	}
	content, err := readContent(c)
	if err != nil {
		return CommitInfo{}, err
	}
	return toCommitInfo(c, content), nil
}

func toCommitInfo(c *object.Commit, content Content) CommitInfo {
	return CommitInfo{
		Hash:      c.Hash.String(),
		Message:   strings.TrimSpace(c.Message),
		Author:    c.Author.Name,
		CreatedAt: c.Author.When,
		Words:     compress.CountWords(content.Body),
	}
}

func authorEmail(author string) string {
	local := make([]rune, 0, len(author))
	for _, r := range author {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			local = append(local, r)
		case r == ' ', r == '-', r == '_':
			local = append(local, '.')
		}
	}
	if len(local) == 0 {
		return "writer@users.novel.local"
	}
	return string(local) + "@users.novel.local"
}
