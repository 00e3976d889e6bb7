package smoketest

import (
	"net/http"
	"slices"
	"time"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/go-tooling/pkg/logs"
	"github.com/rushhourgame/spatial/models"
	"github.com/rushhourgame/spatial/spatial"
	"github.com/segmentio/encoding/json"
)

const (
	ErrTypeCheckFailed = "smoke_test_check_failed"
)

// Check is the result of a single smoke test check.
type Check struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
	Error  string `json:"error,omitempty"`
}

// Results are the results of a smoke test run.
type Results struct {
	Passed           bool    `json:"passed"`
	DurationMilliSec float64 `json:"durationMilliSec"`
	Checks           []Check `json:"checks"`
}

type check struct {
	name string
	run  func() error
}

// Run exercises scratch spatial indexes built with the given options, then
// verifies the index of the given world. Scratch indexes are not reported in
// the process metrics.
func Run(world *models.World, opts ...spatial.Option) Results {
	start := time.Now()

	opts = append(slices.Clip(opts), spatial.WithoutMetrics())
	checks := []check{
		{name: "reference_scenario", run: func() error { return checkReferenceScenario(opts) }},
		{name: "move_consistency", run: func() error { return checkMoveConsistency(opts) }},
		{name: "coarse_covers_precise", run: func() error { return checkCoarseCoversPrecise(opts) }},
		{name: "world_index", run: func() error { return checkWorldIndex(world) }},
	}

	res := Results{
		Passed: true,
		Checks: make([]Check, 0, len(checks)),
	}

	for _, c := range checks {
		r := Check{Name: c.name, Passed: true}

		if err := c.run(); err != nil {
			logs.WithTag("check", c.name).Warn(err)
			r.Passed = false
			r.Error = err.Error()
			res.Passed = false
		}

		res.Checks = append(res.Checks, r)
	}

	res.DurationMilliSec = float64(time.Since(start)) / float64(time.Millisecond)
	return res
}

// HandleSmokeTest runs the smoke test and responds with its results. The
// status code is 500 when a check failed.
func HandleSmokeTest(world *models.World, opts ...spatial.Option) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res := Run(world, opts...)

		b, err := json.Marshal(res)
		if err != nil {
			logs.Warn(errors.New("encoding smoke test results failed").Wrap(err))
			w.WriteHeader(http.StatusInternalServerError)
			return
		}

		statusCode := http.StatusOK
		if !res.Passed {
			statusCode = http.StatusInternalServerError
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(statusCode)
		w.Write(b)
	}
}

type scratchObject = spatial.Object[struct{}]

func checkReferenceScenario(opts []spatial.Option) error {
	m := spatial.NewManager[struct{}](opts...)
	m.AddObject(scratchObject{ID: 1, X: 5, Z: 5, Width: 2, Depth: 2, Type: spatial.TypeVehicle})
	m.AddObject(scratchObject{ID: 2, X: 20, Z: 20, Width: 8, Depth: 6, Type: spatial.TypeFacility})

	if got := objectIDs(m.QueryPoint(5, 5)); !slices.Equal(got, []int{1}) {
		return failed("point query", []int{1}, got)
	}

	if got := objectIDs(m.QueryByType(spatial.TypeFacility, 20, 20, 10)); !slices.Equal(got, []int{2}) {
		return failed("type query", []int{2}, got)
	}

	nearest, ok := m.FindNearest(6, 6, spatial.OfType(spatial.TypeVehicle))
	if !ok || nearest.ID != 1 {
		return failed("nearest query", 1, nearest)
	}

	stats := m.GetStats()
	if stats.TotalObjects != 2 ||
		stats.ObjectsByType[spatial.TypeVehicle] != 1 ||
		stats.ObjectsByType[spatial.TypeFacility] != 1 {
		return failed("stats", "2 objects, 1 vehicle, 1 facility", stats)
	}

	return m.Verify()
}

func checkMoveConsistency(opts []spatial.Option) error {
	m := spatial.NewManager[struct{}](opts...)
	m.AddObject(scratchObject{ID: 1, X: 5, Z: 5, Width: 2, Depth: 2, Type: spatial.TypeAgent})
	m.UpdateObject(1, spatial.Position{X: 250, Z: -75})

	if got := objectIDs(m.QueryRangeCoarse(5, 5, 2, 2)); len(got) != 0 {
		return failed("coarse query at the old position", []int{}, got)
	}

	if got := objectIDs(m.QueryRangePrecise(5, 5, 2, 2)); len(got) != 0 {
		return failed("precise query at the old position", []int{}, got)
	}

	if got := objectIDs(m.QueryPoint(250, -75)); !slices.Equal(got, []int{1}) {
		return failed("point query at the new position", []int{1}, got)
	}

	if err := m.Verify(); err != nil {
		return err
	}

	m.RemoveObject(1)
	if m.Len() != 0 {
		return failed("removal", 0, m.Len())
	}
	return m.Verify()
}

func checkCoarseCoversPrecise(opts []spatial.Option) error {
	m := spatial.NewManager[struct{}](opts...)
	for i := 0; i < 100; i++ {
		m.AddObject(scratchObject{
			ID:    i + 1,
			X:     float64(i%10)*7 - 30,
			Z:     float64(i/10)*7 - 30,
			Width: float64(i%3) + 1,
			Depth: float64(i%4) + 1,
			Type:  spatial.ObjectTypes[i%len(spatial.ObjectTypes)],
		})
	}

	for _, box := range [][4]float64{
		{0, 0, 10, 10},
		{-30, -30, 3, 3},
		{12.5, -7, 20, 1},
		{35, 35, 0, 0},
	} {
		coarse := objectIDs(m.QueryRangeCoarse(box[0], box[1], box[2], box[3]))
		for _, id := range objectIDs(m.QueryRangePrecise(box[0], box[1], box[2], box[3])) {
			if !slices.Contains(coarse, id) {
				return errors.New("precise result missing from coarse result").
					WithType(ErrTypeCheckFailed).
					WithTag("box", box).
					WithTag("object_id", id)
			}
		}
	}

	return m.Verify()
}

func checkWorldIndex(world *models.World) error {
	var err error
	world.Do(func(m *spatial.Manager[models.Entity]) {
		err = m.Verify()
	})
	return err
}

func failed(step string, expected, got any) error {
	return errors.New("unexpected result").
		WithType(ErrTypeCheckFailed).
		WithTag("step", step).
		WithTag("expected", expected).
		WithTag("got", got)
}

func objectIDs[T any](objects []*spatial.Object[T]) []int {
	ids := make([]int, len(objects))
	for i, o := range objects {
		ids[i] = o.ID
	}
	return ids
}
