package elevation_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/nvalera/contourcad/internal/adapters/elevation"
	"github.com/nvalera/contourcad/internal/core/domain"
)

// elevationHandler fakes the remote service: each point's elevation is a
// deterministic function of its coordinates, so ordering is checkable.
func elevationHandler(t *testing.T, requestCount *int, maxBatch int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		*requestCount++

		locs := strings.Split(r.URL.Query().Get("locations"), "|")
		if len(locs) > maxBatch {
			t.Errorf("batch of %d points exceeds limit %d", len(locs), maxBatch)
		}

		var results []string
		for _, loc := range locs {
			var lat, lon float64
			if _, err := fmt.Sscanf(loc, "%f,%f", &lat, &lon); err != nil {
				t.Fatalf("malformed location %q: %v", loc, err)
			}
			elev := lat*1000 + lon
			results = append(results, fmt.Sprintf(
				`{"elevation":%g,"location":{"lat":%g,"lng":%g}}`, elev, lat, lon))
		}

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"status":"OK","results":[%s]}`, strings.Join(results, ","))
	}
}

func gridPoints(n int) []domain.GeoPoint {
	pts := make([]domain.GeoPoint, n)
	for i := range pts {
		pts[i] = domain.GeoPoint{Lon: 103.8 + float64(i)*0.001, Lat: 1.35 + float64(i%7)*0.001}
	}
	return pts
}

func TestElevationsChunking(t *testing.T) {
	requests := 0
	srv := httptest.NewServer(elevationHandler(t, &requests, 100))
	defer srv.Close()

	client := elevation.NewClient(srv.URL, "", 100)
	points := gridPoints(500)

	samples, err := client.Elevations(context.Background(), points)
	if err != nil {
		t.Fatalf("Elevations: %v", err)
	}

	if requests != 5 {
		t.Errorf("issued %d requests for 500 points at chunk size 100, want 5", requests)
	}
	if len(samples) != 500 {
		t.Fatalf("got %d samples, want 500", len(samples))
	}

	// Concatenated results must be in input order regardless of batching.
	for i, s := range samples {
		if s.Location != points[i] {
			t.Fatalf("sample %d location %+v, want %+v", i, s.Location, points[i])
		}
		if s.Elevation == nil {
			t.Fatalf("sample %d has no elevation", i)
		}
		want := points[i].Lat*1000 + points[i].Lon
		if *s.Elevation != want {
			t.Fatalf("sample %d elevation %v, want %v", i, *s.Elevation, want)
		}
	}
}

func TestElevationsPartialFinalChunk(t *testing.T) {
	requests := 0
	srv := httptest.NewServer(elevationHandler(t, &requests, 100))
	defer srv.Close()

	client := elevation.NewClient(srv.URL, "", 100)
	samples, err := client.Elevations(context.Background(), gridPoints(250))
	if err != nil {
		t.Fatalf("Elevations: %v", err)
	}
	if requests != 3 {
		t.Errorf("issued %d requests for 250 points, want 3", requests)
	}
	if len(samples) != 250 {
		t.Errorf("got %d samples, want 250", len(samples))
	}
}

func TestElevationsNullElevationPreserved(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"status":"OK","results":[{"elevation":12.5,"location":{"lat":1,"lng":2}},{"elevation":null,"location":{"lat":3,"lng":4}}]}`)
	}))
	defer srv.Close()

	client := elevation.NewClient(srv.URL, "", 100)
	samples, err := client.Elevations(context.Background(), gridPoints(2))
	if err != nil {
		t.Fatalf("Elevations: %v", err)
	}

	if samples[0].Elevation == nil || *samples[0].Elevation != 12.5 {
		t.Errorf("sample 0 = %v, want 12.5", samples[0].Elevation)
	}
	// A JSON null must come through as nil, never as 0.
	if samples[1].Elevation != nil {
		t.Errorf("sample 1 = %v, want nil for missing data", *samples[1].Elevation)
	}
}

func TestElevationsChunkFailureAbortsRun(t *testing.T) {
	requests := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		if requests == 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		locs := strings.Split(r.URL.Query().Get("locations"), "|")
		var results []string
		for _, loc := range locs {
			var lat, lon float64
			fmt.Sscanf(loc, "%f,%f", &lat, &lon)
			results = append(results, fmt.Sprintf(`{"elevation":1,"location":{"lat":%g,"lng":%g}}`, lat, lon))
		}
		fmt.Fprintf(w, `{"status":"OK","results":[%s]}`, strings.Join(results, ","))
	}))
	defer srv.Close()

	client := elevation.NewClient(srv.URL, "", 100)
	samples, err := client.Elevations(context.Background(), gridPoints(500))

	var sampling *domain.SamplingError
	if !errors.As(err, &sampling) {
		t.Fatalf("expected SamplingError, got %v", err)
	}
	if sampling.Chunk != 2 {
		t.Errorf("failing chunk = %d, want 2", sampling.Chunk)
	}
	if samples != nil {
		t.Error("partial results must be discarded on chunk failure")
	}
}

func TestElevationsCanceledMidRun(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var requests int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&requests, 1)
		if n == 2 {
			// The client hangs here until it gives up on its own context.
			cancel()
			<-r.Context().Done()
			return
		}
		locs := strings.Split(r.URL.Query().Get("locations"), "|")
		var results []string
		for _, loc := range locs {
			var lat, lon float64
			fmt.Sscanf(loc, "%f,%f", &lat, &lon)
			results = append(results, fmt.Sprintf(`{"elevation":1,"location":{"lat":%g,"lng":%g}}`, lat, lon))
		}
		fmt.Fprintf(w, `{"status":"OK","results":[%s]}`, strings.Join(results, ","))
	}))
	defer srv.Close()

	client := elevation.NewClient(srv.URL, "", 100)
	samples, err := client.Elevations(ctx, gridPoints(250))

	var sampling *domain.SamplingError
	if !errors.As(err, &sampling) {
		t.Fatalf("expected SamplingError, got %v", err)
	}
	if sampling.Chunk != 1 {
		t.Errorf("failing chunk = %d, want 1", sampling.Chunk)
	}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("error %v should carry context.Canceled", err)
	}
	if samples != nil {
		t.Error("partial results must be discarded on cancellation")
	}
	if n := atomic.LoadInt32(&requests); n > 2 {
		t.Errorf("issued %d requests after cancellation, want at most 2", n)
	}
}

func TestElevationsServiceStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"status":"OVER_QUERY_LIMIT","results":[]}`)
	}))
	defer srv.Close()

	client := elevation.NewClient(srv.URL, "", 100)
	_, err := client.Elevations(context.Background(), gridPoints(5))
	if err == nil {
		t.Fatal("expected error for non-OK service status")
	}
	if !strings.Contains(err.Error(), "OVER_QUERY_LIMIT") {
		t.Errorf("error %q should carry the service status", err)
	}
}

func TestElevationsResultCountMismatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"status":"OK","results":[{"elevation":1,"location":{"lat":1,"lng":2}}]}`)
	}))
	defer srv.Close()

	client := elevation.NewClient(srv.URL, "", 100)
	if _, err := client.Elevations(context.Background(), gridPoints(3)); err == nil {
		t.Fatal("expected error when result count disagrees with request")
	}
}
