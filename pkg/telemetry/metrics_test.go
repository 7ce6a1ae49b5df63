package telemetry

import (
	"io/ioutil"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetrics(t *testing.T) {
	m := NewMetrics("webdeploy")
	m.EnableHandlingTimeHistogram()

	start := time.Now()

	m.DeploymentStarted("example")
	m.DeploymentHandled("example", start, start.Add(2*time.Second), StatusSuccess)
	m.DeploymentStarted("example")
	m.DeploymentHandled("example", start, start.Add(time.Second), StatusFailure)

	if got := testutil.ToFloat64(m.deployments.StartedCounter.WithLabelValues("example")); got != 2 {
		t.Errorf("unexpected started count: %v", got)
	}

	for _, status := range []string{StatusSuccess, StatusFailure} {
		if got := testutil.ToFloat64(m.deployments.HandledCounter.WithLabelValues("example", status)); got != 1 {
			t.Errorf("unexpected %s count: %v", status, got)
		}
	}
}

func TestMetrics_HistogramDisabled(t *testing.T) {
	m := NewMetrics("webdeploy")

	start := time.Now()
	m.DeploymentHandled("example", start, start.Add(time.Second), StatusSuccess)

	if m.deployments.HandledHistogram != nil {
		t.Errorf("histogram should not be created until enabled")
	}
}

func TestPush(t *testing.T) {
	var (
		method, path string
		body         string
	)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		method, path = r.Method, r.URL.Path
		bs, _ := ioutil.ReadAll(r.Body)
		body = string(bs)
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	m := NewMetrics("webdeploy")
	m.DeploymentStarted("example")
	start := time.Now()
	m.DeploymentHandled("example", start, start, StatusSuccess)

	if err := m.Push(srv.URL, "webdeploy"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if method != http.MethodPut {
		t.Errorf("unexpected method: %s", method)
	}

	if path != "/metrics/job/webdeploy" {
		t.Errorf("unexpected path: %s", path)
	}

	if !strings.Contains(body, "webdeploy_deployment_started_total") {
		t.Errorf("pushed metrics do not contain the started counter")
	}
}
