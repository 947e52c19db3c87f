package navigation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestTracker_NavigateAndConsume(t *testing.T) {
	tr := NewTracker(zap.NewNop())

	_, ok := tr.Current()
	assert.False(t, ok)

	tr.Navigate(SignIn("/dashboard/requests?status=pending"))
	loc, ok := tr.Current()
	assert.True(t, ok)
	assert.Equal(t, SignInPath, loc.Path)
	assert.Equal(t, "/login?from=%2Fdashboard%2Frequests%3Fstatus%3Dpending", loc.URL())

	_, ok = tr.Consume()
	assert.True(t, ok)
	_, ok = tr.Current()
	assert.False(t, ok)
}
