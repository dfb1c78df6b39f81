package github

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRepoPath(t *testing.T) {
	withOwner := NewClient("acme", true)
	assert.Equal(t, "acme/notes", withOwner.repoPath("notes"))

	noOwner := NewClient("", true)
	assert.Equal(t, "notes", noOwner.repoPath("notes"))
}

func TestRepoFromView(t *testing.T) {
	view := &repoView{Name: "notes", URL: "https://github.com/acme/notes"}
	view.Owner.Login = "acme"

	repo := repoFromView(view)
	assert.Equal(t, "acme/notes", repo.FullName)
	assert.Equal(t, "https://github.com/acme/notes.git", repo.CloneURL)
	assert.False(t, repo.Created)
}
