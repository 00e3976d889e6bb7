package http

import (
	"math"
	"net/http"
	"slices"
	"strconv"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/rushhourgame/spatial/models"
	"github.com/rushhourgame/spatial/spatial"
)

type statsResponse struct {
	World string `json:"world"`
	Frame uint64 `json:"frame"`
	spatial.Stats
}

type debugInfoResponse struct {
	World string `json:"world"`
	Frame uint64 `json:"frame"`
	spatial.DebugInfo
}

type objectsResponse struct {
	Frame   uint64              `json:"frame"`
	Objects []models.EntityView `json:"objects"`
}

type nearestResponse struct {
	Frame  uint64             `json:"frame"`
	Found  bool               `json:"found"`
	Object *models.EntityView `json:"object"`
}

// HandleStats returns the number of indexed entities, by type.
func HandleStats(world *models.World) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, worldStats(world))
	}
}

func worldStats(world *models.World) statsResponse {
	var res statsResponse
	world.Do(func(m *spatial.Manager[models.Entity]) {
		res = statsResponse{
			World: world.UUID,
			Frame: world.Frame(),
			Stats: m.GetStats(),
		}
	})
	return res
}

// HandleDebugInfo returns a diagnostic snapshot of the spatial indexes.
func HandleDebugInfo(world *models.World) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var res debugInfoResponse
		world.Do(func(m *spatial.Manager[models.Entity]) {
			res = debugInfoResponse{
				World:     world.UUID,
				Frame:     world.Frame(),
				DebugInfo: m.DebugInfo(),
			}
		})

		writeJSON(w, http.StatusOK, res)
	}
}

// HandleQueryPoint returns the entities containing the x/z point.
func HandleQueryPoint(world *models.World) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := queryParams{r: r}
		x := q.float("x")
		z := q.float("z")
		if q.err != nil {
			writeError(w, q.err)
			return
		}

		writeObjects(w, world, func(m *spatial.Manager[models.Entity]) []*models.EntityObject {
			return m.QueryPoint(x, z)
		})
	}
}

// HandleQueryRange returns the entities overlapping the box centered on x/z.
// The R-tree is used unless precise is false.
func HandleQueryRange(world *models.World) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := queryParams{r: r}
		x := q.float("x")
		z := q.float("z")
		width := q.float("width")
		depth := q.float("depth")
		precise := q.optionalBool("precise", true)
		if q.err != nil {
			writeError(w, q.err)
			return
		}

		writeObjects(w, world, func(m *spatial.Manager[models.Entity]) []*models.EntityObject {
			if precise {
				return m.QueryRangePrecise(x, z, width, depth)
			}
			return m.QueryRangeCoarse(x, z, width, depth)
		})
	}
}

// HandleQueryByType returns the entities of a type around x/z.
func HandleQueryByType(world *models.World) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := queryParams{r: r}
		t := q.objectType("type")
		x := q.float("x")
		z := q.float("z")
		radius := q.float("radius")
		if q.err != nil {
			writeError(w, q.err)
			return
		}

		writeObjects(w, world, func(m *spatial.Manager[models.Entity]) []*models.EntityObject {
			return m.QueryByType(t, x, z, radius)
		})
	}
}

// HandleQueryNearest returns the entity closest to x/z, optionally of a given
// type and within a given distance.
func HandleQueryNearest(world *models.World) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := queryParams{r: r}
		x := q.float("x")
		z := q.float("z")

		var opts []spatial.NearestOption
		if r.URL.Query().Has("type") {
			opts = append(opts, spatial.OfType(q.objectType("type")))
		}
		if r.URL.Query().Has("maxDistance") {
			opts = append(opts, spatial.Within(q.float("maxDistance")))
		}
		if q.err != nil {
			writeError(w, q.err)
			return
		}

		var res nearestResponse
		world.Do(func(m *spatial.Manager[models.Entity]) {
			res.Frame = world.Frame()

			if o, ok := m.FindNearest(x, z, opts...); ok {
				view := models.NewEntityView(o)
				res.Found = true
				res.Object = &view
			}
		})

		writeJSON(w, http.StatusOK, res)
	}
}

func writeObjects(w http.ResponseWriter, world *models.World, query func(*spatial.Manager[models.Entity]) []*models.EntityObject) {
	var res objectsResponse
	world.Do(func(m *spatial.Manager[models.Entity]) {
		res = objectsResponse{
			Frame:   world.Frame(),
			Objects: models.EntityViews(query(m)),
		}
	})

	writeJSON(w, http.StatusOK, res)
}

// queryParams parses URL query parameters. The first error is kept and
// subsequent parsing is skipped.
type queryParams struct {
	r   *http.Request
	err error
}

func (q *queryParams) get(name string) (string, bool) {
	if q.err != nil {
		return "", false
	}

	v := q.r.URL.Query().Get(name)
	if v == "" {
		q.err = errors.New("missing query parameter").
			WithType(ErrTypeBadQuery).
			WithTag("param", name)
		return "", false
	}
	return v, true
}

func (q *queryParams) float(name string) float64 {
	v, ok := q.get(name)
	if !ok {
		return 0
	}

	f, err := strconv.ParseFloat(v, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		q.err = errors.New("query parameter is not a finite number").
			WithType(ErrTypeBadQuery).
			WithTag("param", name).
			WithTag("value", v)
		return 0
	}
	return f
}

func (q *queryParams) optionalBool(name string, defaultValue bool) bool {
	if q.err != nil || !q.r.URL.Query().Has(name) {
		return defaultValue
	}

	v := q.r.URL.Query().Get(name)
	b, err := strconv.ParseBool(v)
	if err != nil {
		q.err = errors.New("query parameter is not a boolean").
			WithType(ErrTypeBadQuery).
			WithTag("param", name).
			WithTag("value", v)
		return defaultValue
	}
	return b
}

func (q *queryParams) objectType(name string) spatial.ObjectType {
	v, ok := q.get(name)
	if !ok {
		return ""
	}

	t := spatial.ObjectType(v)
	if !slices.Contains(spatial.ObjectTypes, t) {
		q.err = errors.New("unknown object type").
			WithType(ErrTypeBadQuery).
			WithTag("param", name).
			WithTag("value", v)
		return ""
	}
	return t
}
