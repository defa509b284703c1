package metrics

import (
	"io"
	"net/http"
	"testing"

	"github.com/nspcc-dev/spendkit/pkg/config"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestPrometheusService(t *testing.T) {
	t.Run("disabled", func(t *testing.T) {
		s := NewPrometheusService(config.BasicService{Addresses: []string{"127.0.0.1:0"}}, zaptest.NewLogger(t))
		require.NoError(t, s.Start())
		require.Equal(t, []string{"127.0.0.1:0"}, s.Addresses())
		s.ShutDown()
	})
	t.Run("nil logger", func(t *testing.T) {
		require.Nil(t, NewPrometheusService(config.BasicService{}, nil))
	})
	t.Run("serve", func(t *testing.T) {
		s := NewPrometheusService(config.BasicService{
			Enabled:   true,
			Addresses: []string{"127.0.0.1:0"},
		}, zaptest.NewLogger(t))
		require.NoError(t, s.Start())
		t.Cleanup(s.ShutDown)

		resp, err := http.Get("http://" + s.Addresses()[0] + "/metrics")
		require.NoError(t, err)
		defer resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)
		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		require.Contains(t, string(body), "go_goroutines")
	})
}
