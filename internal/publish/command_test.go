package publish

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/privacy-cli/internal/config"
)

func publishCmd(check func(c Command) bool) any {
	return mock.MatchedBy(func(c Command) bool { return c.Name == "publish-page" && check(c) })
}

func TestCommandPublisher_Publish(t *testing.T) {
	r := new(mockRunner)
	r.On("Run", mock.Anything, publishCmd(func(c Command) bool {
		if len(c.Args) != 7 || c.Args[0] != "--site" {
			return false
		}
		data, err := os.ReadFile(c.Args[6])
		return err == nil && string(data) == "policy text" &&
			c.Args[1] == "--title" && c.Args[2] == "Bee Keeper" &&
			c.Args[3] == "--id" && c.Args[4] == "IGT1128" && c.Args[5] == "--content-file"
	})).Return("Wrote page\nPage URL: https://acme.github.io/site/pages/jfdvimjrgi4a-bee-keeper/\n", "", nil)

	c := &CommandPublisher{Command: "publish-page", Args: []string{"--site"}, Runner: r}
	pub, err := c.Publish(context.Background(), Page{Title: "Bee Keeper", OrderID: "IGT1128", Content: "policy text"})
	require.NoError(t, err)
	r.AssertExpectations(t)

	assert.Equal(t, "https://acme.github.io/site/pages/jfdvimjrgi4a-bee-keeper/", pub.URL)
	assert.Equal(t, "jfdvimjrgi4a-bee-keeper", pub.Slug)
}

func TestCommandPublisher_UsesContentFileAndFlags(t *testing.T) {
	r := new(mockRunner)
	r.On("Run", mock.Anything, publishCmd(func(c Command) bool {
		want := []string{"--title", "privacy-policy", "--id", "", "--content-file", "/work/privacy_policy.html",
			"--content-is-html", "--slug", "given", "--commit-message", "msg"}
		return assert.ObjectsAreEqual(want, c.Args)
	})).Return("", "https://acme.github.io/site/pages/given/", nil)

	c := &CommandPublisher{Command: "publish-page", Runner: r}
	pub, err := c.Publish(context.Background(), Page{
		ContentFile:   "/work/privacy_policy.html",
		ContentIsHTML: true,
		Slug:          "given",
		CommitMessage: "msg",
	})
	require.NoError(t, err)
	assert.Equal(t, "https://acme.github.io/site/pages/given/", pub.URL)
	r.AssertExpectations(t)
}

func TestCommandPublisher_Failures(t *testing.T) {
	t.Run("non-zero exit", func(t *testing.T) {
		r := new(mockRunner)
		r.On("Run", mock.Anything, mock.Anything).Return("partial", "boom", errors.New("exit status 1"))

		_, err := (&CommandPublisher{Command: "publish-page", Runner: r}).Publish(context.Background(), Page{Content: "x"})
		require.Error(t, err)
		assert.True(t, eris.Is(err, ErrPublish))
		assert.Contains(t, err.Error(), "boom")
	})

	t.Run("no url in output", func(t *testing.T) {
		r := new(mockRunner)
		r.On("Run", mock.Anything, mock.Anything).Return("Page URL: pages/x/", "", nil)

		_, err := (&CommandPublisher{Command: "publish-page", Runner: r}).Publish(context.Background(), Page{Content: "x"})
		require.Error(t, err)
		assert.True(t, eris.Is(err, ErrPublish))
		assert.Contains(t, err.Error(), "no page url")
	})
}

func TestNew(t *testing.T) {
	p, err := New(config.PagesConfig{Publisher: "git", RepoDir: "/srv/site", PushRetries: 2, TimeoutSecs: 30}, nil, true)
	require.NoError(t, err)
	g, ok := p.(*GitPublisher)
	require.True(t, ok)
	assert.Equal(t, "/srv/site", g.RepoDir)
	assert.True(t, g.NoPush)
	assert.IsType(t, ExecRunner{}, g.Runner)

	p, err = New(config.PagesConfig{Publisher: "command", Command: "python3 googleSites.py --no-wait"}, nil, false)
	require.NoError(t, err)
	c, ok := p.(*CommandPublisher)
	require.True(t, ok)
	assert.Equal(t, "python3", c.Command)
	assert.Equal(t, []string{"googleSites.py", "--no-wait"}, c.Args)

	_, err = New(config.PagesConfig{Publisher: "command"}, nil, false)
	require.Error(t, err)

	_, err = New(config.PagesConfig{Publisher: "ftp"}, nil, false)
	require.Error(t, err)
}
