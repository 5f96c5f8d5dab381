package workbench

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"querydesk/cli/internal/backend"
	qerrors "querydesk/cli/internal/errors"
	"querydesk/cli/internal/resultset"
)

// fakeAPI is a scripted backend that counts calls.
type fakeAPI struct {
	mu sync.Mutex

	sources    []string
	sourcesErr error
	selectErr  error
	queryFn    func(text string) (*resultset.Response, error)
	exportFn   func(query string) (*backend.Artifact, error)

	listCalls   int
	selectCalls []string
	queryCalls  []string
	exportCalls []string
}

func (f *fakeAPI) ListSources(context.Context) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	return f.sources, f.sourcesErr
}

func (f *fakeAPI) SelectSource(_ context.Context, source string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.selectCalls = append(f.selectCalls, source)
	return f.selectErr
}

func (f *fakeAPI) Query(_ context.Context, text string) (*resultset.Response, error) {
	f.mu.Lock()
	f.queryCalls = append(f.queryCalls, text)
	fn := f.queryFn
	f.mu.Unlock()
	return fn(text)
}

func (f *fakeAPI) Export(_ context.Context, query string) (*backend.Artifact, error) {
	f.mu.Lock()
	f.exportCalls = append(f.exportCalls, query)
	fn := f.exportFn
	f.mu.Unlock()
	if fn == nil {
		return &backend.Artifact{Data: []byte("xlsx"), ContentType: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"}, nil
	}
	return fn(query)
}

// recorder collects rendered events.
type recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *recorder) Render(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recorder) ofType(t EventType) []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Event
	for _, e := range r.events {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

func (r *recorder) reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}

// memSink keeps artifacts in memory.
type memSink struct {
	saved []*backend.Artifact
	err   error
}

func (m *memSink) Save(a *backend.Artifact) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	m.saved = append(m.saved, a)
	return "mem://" + FileName(time.Date(2025, 3, 9, 0, 0, 0, 0, time.UTC), a), nil
}

func rows(t *testing.T, doc string) []resultset.Record {
	t.Helper()
	var out []resultset.Record
	require.NoError(t, json.Unmarshal([]byte(doc), &out))
	return out
}

func success(query string, recs []resultset.Record) *resultset.Response {
	return &resultset.Response{Status: resultset.StatusSuccess, Query: query, RowCount: len(recs), Rows: recs}
}

func newTestWorkbench(api *fakeAPI) (*Workbench, *recorder, *memSink) {
	rec := &recorder{}
	sink := &memSink{}
	return New(Options{API: api, Renderer: rec, Sink: sink}), rec, sink
}

func selected(t *testing.T, wb *Workbench, source string) {
	t.Helper()
	require.NoError(t, wb.Dispatch(t.Context(), SelectSource(source)))
}

func assertIdle(t *testing.T, wb *Workbench) {
	t.Helper()
	c := wb.Controls()
	assert.True(t, c.Submit.Enabled, "submit trigger must be re-enabled")
	assert.Equal(t, SubmitIdleLabel, c.Submit.Label)
	assert.False(t, c.Loading, "loading indicator must be hidden")
	assert.Equal(t, StateIdle, wb.RunnerState())
}

func TestSubmitValidation(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		source string
		want   string
	}{
		{name: "empty", text: "", source: "db1", want: MsgEnterQuery},
		{name: "whitespace", text: " \t\n ", source: "db1", want: MsgEnterQuery},
		{name: "empty checked before source", text: "  ", want: MsgEnterQuery},
		{name: "no source", text: "show users", want: MsgSelectSource},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := &fakeAPI{queryFn: func(string) (*resultset.Response, error) {
				t.Fatal("query must not be sent")
				return nil, nil
			}}
			wb, rec, _ := newTestWorkbench(api)
			if tt.source != "" {
				selected(t, wb, tt.source)
			}
			rec.reset()

			err := wb.Dispatch(t.Context(), Submit(tt.text))

			assert.True(t, qerrors.Is(err, qerrors.Validation))
			assert.Empty(t, api.queryCalls)
			v := rec.ofType(EventValidation)
			require.Len(t, v, 1)
			assert.Equal(t, tt.want, v[0].Message)
			assert.Empty(t, rec.ofType(EventResultCleared), "validation does not touch the result area")
			assertIdle(t, wb)
		})
	}
}

func TestSubmitSuccessRendersTable(t *testing.T) {
	api := &fakeAPI{queryFn: func(text string) (*resultset.Response, error) {
		return success("SELECT id, name FROM users", rows(t, `[{"id":1,"name":null},{"id":2,"name":"bo"}]`)), nil
	}}
	wb, rec, _ := newTestWorkbench(api)
	selected(t, wb, "db1")

	require.NoError(t, wb.Dispatch(t.Context(), Submit("  list users  ")))

	assert.Equal(t, []string{"list users"}, api.queryCalls, "query text is trimmed")
	q := rec.ofType(EventQueryText)
	require.Len(t, q, 1)
	assert.Equal(t, "SELECT id, name FROM users", q[0].Query)

	tables := rec.ofType(EventTable)
	require.Len(t, tables, 1)
	assert.Equal(t, []string{"id", "name"}, tables[0].Table.Columns)
	assert.Equal(t, [][]string{{"1", "NULL"}, {"2", "bo"}}, tables[0].Table.Rows)
	assert.Empty(t, rec.ofType(EventNoData))

	last, ok := wb.Session().LastQuery()
	require.True(t, ok)
	assert.Equal(t, "SELECT id, name FROM users", last)
	assert.True(t, wb.Controls().Export.Enabled)
	assert.Equal(t, StateRenderedSuccess, wb.LastOutcome())
	assertIdle(t, wb)
}

func TestSubmitSuccessWithoutRows(t *testing.T) {
	tests := []struct {
		name string
		resp *resultset.Response
	}{
		{name: "zero row count", resp: &resultset.Response{Status: "success", Query: "DELETE FROM x", RowCount: 0, Message: "Query executed successfully (no data returned)"}},
		{name: "zero count with stray rows", resp: &resultset.Response{Status: "success", Query: "SELECT 1", RowCount: 0, Rows: rows(t, `[{"a":1}]`)}},
		{name: "positive count without rows", resp: &resultset.Response{Status: "success", Query: "SELECT 1", RowCount: 3}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := &fakeAPI{queryFn: func(string) (*resultset.Response, error) { return tt.resp, nil }}
			wb, rec, _ := newTestWorkbench(api)
			selected(t, wb, "db1")

			require.NoError(t, wb.Dispatch(t.Context(), Submit("q")))

			notice := rec.ofType(EventNoData)
			require.Len(t, notice, 1)
			assert.Equal(t, MsgNoData, notice[0].Message)
			assert.Empty(t, rec.ofType(EventTable), "never an empty table")
			assertIdle(t, wb)
		})
	}
}

func TestSubmitDomainError(t *testing.T) {
	api := &fakeAPI{queryFn: func(string) (*resultset.Response, error) {
		return &resultset.Response{Status: "error", Message: "no such table: userz", Query: "SELECT * FROM userz"}, nil
	}}
	wb, rec, _ := newTestWorkbench(api)
	selected(t, wb, "db1")

	err := wb.Dispatch(t.Context(), Submit("users"))

	e, ok := qerrors.As(err)
	require.True(t, ok)
	assert.Equal(t, qerrors.Domain, e.Kind)
	errs := rec.ofType(EventError)
	require.Len(t, errs, 1)
	assert.Equal(t, "no such table: userz", errs[0].Message)
	assert.Equal(t, "SELECT * FROM userz", errs[0].Detail)
	assert.Empty(t, rec.ofType(EventQueryText), "query text area is left as it was")
	_, ok = wb.Session().LastQuery()
	assert.False(t, ok)
	assert.False(t, wb.Controls().Export.Enabled)
	assert.Equal(t, StateRenderedError, wb.LastOutcome())
	assertIdle(t, wb)
}

func TestSubmitTransportError(t *testing.T) {
	raw := errors.New(`Post "http://127.0.0.1:5000/query": connection refused`)
	api := &fakeAPI{queryFn: func(string) (*resultset.Response, error) {
		return nil, qerrors.NewTransport(raw)
	}}
	wb, rec, _ := newTestWorkbench(api)
	selected(t, wb, "db1")

	err := wb.Dispatch(t.Context(), Submit("users"))

	assert.True(t, qerrors.Is(err, qerrors.Transport))
	errs := rec.ofType(EventError)
	require.Len(t, errs, 1)
	assert.Equal(t, raw.Error(), errs[0].Message)
	assert.Empty(t, errs[0].Detail, "transport errors have no detail block")
	assertIdle(t, wb)
}

func TestSubmitEntersBusyState(t *testing.T) {
	var during Controls
	var wb *Workbench
	api := &fakeAPI{queryFn: func(string) (*resultset.Response, error) {
		during = wb.Controls()
		assert.Equal(t, StateSubmitting, wb.RunnerState())
		return success("SELECT 1", nil), nil
	}}
	wb, rec, _ := newTestWorkbench(api)
	selected(t, wb, "db1")

	require.NoError(t, wb.Dispatch(t.Context(), Submit("x")))

	assert.False(t, during.Submit.Enabled)
	assert.Equal(t, SubmitBusyLabel, during.Submit.Label)
	assert.True(t, during.Loading)
	assert.Len(t, rec.ofType(EventResultCleared), 1)
}

func TestSubmitRejectsReentry(t *testing.T) {
	release := make(chan struct{})
	entered := make(chan struct{})
	api := &fakeAPI{queryFn: func(string) (*resultset.Response, error) {
		close(entered)
		<-release
		return success("SELECT 1", rows(t, `[{"a":1}]`)), nil
	}}
	wb, _, _ := newTestWorkbench(api)
	selected(t, wb, "db1")

	done := make(chan error, 1)
	go func() { done <- wb.Dispatch(context.Background(), Submit("first")) }()
	<-entered

	err := wb.Dispatch(t.Context(), Submit("second"))
	assert.ErrorIs(t, err, ErrBusy)

	close(release)
	require.NoError(t, <-done)
	assert.Equal(t, []string{"first"}, api.queryCalls, "no queuing")
	assertIdle(t, wb)
}

func TestCleanupSurvivesRendererPanic(t *testing.T) {
	api := &fakeAPI{queryFn: func(string) (*resultset.Response, error) {
		return success("SELECT 1", rows(t, `[{"a":1}]`)), nil
	}}
	rec := &recorder{}
	panicky := RendererFunc(func(e Event) {
		if e.Type == EventTable {
			panic("boom")
		}
		rec.Render(e)
	})
	wb := New(Options{API: api, Renderer: panicky, Sink: &memSink{}})
	selected(t, wb, "db1")

	err := wb.Dispatch(t.Context(), Submit("x"))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "renderer panicked")
	assertIdle(t, wb)
	assert.Equal(t, StateRenderedError, wb.LastOutcome())

	// The session keeps working afterwards.
	api.queryFn = func(string) (*resultset.Response, error) { return success("SELECT 2", nil), nil }
	require.NoError(t, wb.Dispatch(t.Context(), Submit("y")))
}

func TestCleanupWhenControlsRenderingPanics(t *testing.T) {
	api := &fakeAPI{queryFn: func(string) (*resultset.Response, error) {
		return success("SELECT 1", nil), nil
	}}
	wb := New(Options{API: api, Renderer: RendererFunc(func(e Event) {
		if e.Type == EventControls && e.Controls.Submit.Label == SubmitIdleLabel && !e.Controls.Loading {
			panic("cannot draw")
		}
	}), Sink: &memSink{}})
	wb.selector.writer.Commit("db1")

	_ = wb.Dispatch(t.Context(), Submit("x"))
	assertIdle(t, wb)
}

func TestExportBeforeAnySuccess(t *testing.T) {
	api := &fakeAPI{}
	wb, rec, sink := newTestWorkbench(api)

	_, err := wb.exporter.Export(t.Context())

	assert.True(t, qerrors.Is(err, qerrors.Validation))
	assert.Empty(t, api.exportCalls)
	assert.Empty(t, sink.saved)
	v := rec.ofType(EventValidation)
	require.Len(t, v, 1)
	assert.Equal(t, MsgGenerateFirst, v[0].Message)
}

func TestExportUsesLastSuccessfulQuery(t *testing.T) {
	for _, failures := range []int{0, 1, 3} {
		t.Run("failures="+strconv.Itoa(failures), func(t *testing.T) {
			calls := 0
			api := &fakeAPI{queryFn: func(text string) (*resultset.Response, error) {
				calls++
				switch {
				case calls == 1:
					return success("SELECT * FROM good", rows(t, `[{"a":1}]`)), nil
				case calls%2 == 0:
					return &resultset.Response{Status: "error", Message: "bad", Query: "SELECT * FROM bad"}, nil
				default:
					return nil, qerrors.NewTransport(errors.New("reset by peer"))
				}
			}}
			wb, rec, sink := newTestWorkbench(api)
			selected(t, wb, "db1")

			require.NoError(t, wb.Dispatch(t.Context(), Submit("good")))
			for i := 0; i < failures; i++ {
				require.Error(t, wb.Dispatch(t.Context(), Submit("bad")))
			}
			assert.True(t, wb.Controls().Export.Enabled, "failed queries leave export enabled")

			path, err := wb.exporter.Export(t.Context())
			require.NoError(t, err)
			assert.Equal(t, []string{"SELECT * FROM good"}, api.exportCalls)
			assert.Equal(t, "mem://results_2025-03-09.xlsx", path)
			require.Len(t, sink.saved, 1)
			saved := rec.ofType(EventExportSaved)
			require.Len(t, saved, 1)
			assert.Equal(t, 4, saved[0].Size)
		})
	}
}

func TestExportKeepsQueryAcrossSourceChange(t *testing.T) {
	api := &fakeAPI{queryFn: func(string) (*resultset.Response, error) {
		return success("SELECT 1", rows(t, `[{"a":1}]`)), nil
	}}
	wb, _, _ := newTestWorkbench(api)
	selected(t, wb, "db1")
	require.NoError(t, wb.Dispatch(t.Context(), Submit("x")))
	selected(t, wb, "db2")

	require.NoError(t, wb.Dispatch(t.Context(), Export()))
	assert.Equal(t, []string{"SELECT 1"}, api.exportCalls)
}

func TestExportFailure(t *testing.T) {
	tests := []struct {
		name     string
		exportFn func(string) (*backend.Artifact, error)
		sinkErr  error
		want     string
	}{
		{
			name:     "domain",
			exportFn: func(string) (*backend.Artifact, error) { return nil, qerrors.NewDomain("No data to export", "") },
			want:     "Excel download failed: No data to export",
		},
		{
			name:     "transport",
			exportFn: func(string) (*backend.Artifact, error) { return nil, qerrors.NewTransport(errors.New("EOF")) },
			want:     "Excel download failed: EOF",
		},
		{
			name:    "sink",
			sinkErr: errors.New("disk full"),
			want:    "Excel download failed: disk full",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := &fakeAPI{
				queryFn:  func(string) (*resultset.Response, error) { return success("SELECT 1", nil), nil },
				exportFn: tt.exportFn,
			}
			wb, rec, sink := newTestWorkbench(api)
			sink.err = tt.sinkErr
			selected(t, wb, "db1")
			require.NoError(t, wb.Dispatch(t.Context(), Submit("x")))
			rec.reset()

			require.Error(t, wb.Dispatch(t.Context(), Export()))

			errs := rec.ofType(EventError)
			require.Len(t, errs, 1)
			assert.Equal(t, tt.want, errs[0].Message)
			c := wb.Controls()
			assert.True(t, c.Export.Enabled)
			assert.Equal(t, ExportIdleLabel, c.Export.Label)
		})
	}
}

func TestExportBusyLabel(t *testing.T) {
	var wb *Workbench
	var during Controls
	api := &fakeAPI{
		queryFn: func(string) (*resultset.Response, error) { return success("SELECT 1", nil), nil },
		exportFn: func(string) (*backend.Artifact, error) {
			during = wb.Controls()
			_, err := wb.exporter.Export(context.Background())
			assert.ErrorIs(t, err, ErrBusy)
			return &backend.Artifact{Data: []byte("x")}, nil
		},
	}
	wb, _, _ = newTestWorkbench(api)
	selected(t, wb, "db1")
	require.NoError(t, wb.Dispatch(t.Context(), Submit("x")))

	require.NoError(t, wb.Dispatch(t.Context(), Export()))
	assert.False(t, during.Export.Enabled)
	assert.Equal(t, ExportBusyLabel, during.Export.Label)
	assert.Len(t, api.exportCalls, 1)
}

func TestLoadSingleSourceAutoSelects(t *testing.T) {
	api := &fakeAPI{sources: []string{"db1"}}
	wb, rec, _ := newTestWorkbench(api)

	require.NoError(t, wb.Dispatch(t.Context(), LoadSources()))

	assert.Equal(t, []string{"db1"}, api.selectCalls)
	src, ok := wb.Session().SelectedSource()
	require.True(t, ok)
	assert.Equal(t, "db1", src)
	ind := wb.Controls().Indicator
	assert.Equal(t, IndicatorConfirmed, ind.State)
	assert.Equal(t, "db1", ind.Text)
	assert.Len(t, rec.ofType(EventSourcesLoaded), 1)
}

func TestLoadManySourcesDoesNotSelect(t *testing.T) {
	api := &fakeAPI{sources: []string{"db1", "db2", "db1"}}
	wb, rec, _ := newTestWorkbench(api)

	require.NoError(t, wb.Dispatch(t.Context(), LoadSources()))

	assert.Empty(t, api.selectCalls)
	_, ok := wb.Session().SelectedSource()
	assert.False(t, ok)
	assert.Equal(t, IndicatorUnconfirmed, wb.Controls().Indicator.State)
	loaded := rec.ofType(EventSourcesLoaded)
	require.Len(t, loaded, 1)
	assert.Equal(t, []string{"db1", "db2", "db1"}, loaded[0].Sources, "duplicates are kept")
	assert.Equal(t, []string{"db1", "db2", "db1"}, wb.Sources())
}

func TestLoadEmptyAndFailure(t *testing.T) {
	api := &fakeAPI{sources: []string{}}
	wb, rec, _ := newTestWorkbench(api)

	require.NoError(t, wb.Dispatch(t.Context(), LoadSources()))
	empty := rec.ofType(EventSourcesEmpty)
	require.Len(t, empty, 1)
	assert.Equal(t, MsgNoSources, empty[0].Message)

	api.sourcesErr = qerrors.NewTransport(errors.New("dial tcp: refused"))
	require.Error(t, wb.Dispatch(t.Context(), LoadSources()))
	failed := rec.ofType(EventSourcesFailed)
	require.Len(t, failed, 1)
	assert.Equal(t, MsgSourcesFailed, failed[0].Message)
	assert.Empty(t, wb.Sources())
	assert.Equal(t, 2, api.listCalls, "no automatic retry")
}

func TestSelectFailureClearsSession(t *testing.T) {
	api := &fakeAPI{}
	wb, rec, _ := newTestWorkbench(api)
	selected(t, wb, "db1")

	api.selectErr = qerrors.NewDomain("500 Internal Server Error", "")
	err := wb.Dispatch(t.Context(), SelectSource("db2"))

	require.Error(t, err)
	_, ok := wb.Session().SelectedSource()
	assert.False(t, ok)
	ind := wb.Controls().Indicator
	assert.Equal(t, IndicatorFailed, ind.State)
	assert.Equal(t, MsgConnectionFailed, ind.Text)
	assert.Len(t, rec.ofType(EventSelectionReset), 1)

	// With the selection gone, submissions fail validation.
	rec.reset()
	_ = wb.Dispatch(t.Context(), Submit("x"))
	v := rec.ofType(EventValidation)
	require.Len(t, v, 1)
	assert.Equal(t, MsgSelectSource, v[0].Message)
}

func TestSelectEmptyIsNoop(t *testing.T) {
	api := &fakeAPI{}
	wb, rec, _ := newTestWorkbench(api)

	assert.NoError(t, wb.Dispatch(t.Context(), SelectSource("   ")))
	assert.Empty(t, api.selectCalls)
	assert.Empty(t, rec.events)
	assert.Equal(t, InitialControls(), wb.Controls())
}

func TestDispatchUnknownAction(t *testing.T) {
	wb, _, _ := newTestWorkbench(&fakeAPI{})
	assert.Error(t, wb.Dispatch(t.Context(), Action{Kind: ActionKind(42)}))
}

func TestFileSink(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "downloads")
	sink := FileSink{Dir: dir, Now: func() time.Time { return time.Date(2024, 12, 31, 23, 0, 0, 0, time.UTC) }}

	path, err := sink.Save(&backend.Artifact{Data: []byte("abc"), Filename: "query_results.xlsx"})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "results_2024-12-31.xlsx"), path)
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "abc", string(b))
}

func TestFileNameUsesUTCDay(t *testing.T) {
	east := time.FixedZone("UTC+9", 9*60*60)
	west := time.FixedZone("UTC-8", -8*60*60)
	a := &backend.Artifact{Filename: "query_results.xlsx"}

	assert.Equal(t, "results_2025-03-08.xlsx", FileName(time.Date(2025, 3, 9, 2, 0, 0, 0, east), a))
	assert.Equal(t, "results_2025-03-10.xlsx", FileName(time.Date(2025, 3, 9, 20, 0, 0, 0, west), a))
}

func TestExtension(t *testing.T) {
	tests := []struct {
		name string
		a    backend.Artifact
		want string
	}{
		{name: "from filename", a: backend.Artifact{Filename: "out.CSV"}, want: "csv"},
		{name: "from content type", a: backend.Artifact{ContentType: "text/csv; charset=utf-8"}, want: "csv"},
		{name: "spreadsheet", a: backend.Artifact{ContentType: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"}, want: "xlsx"},
		{name: "default", a: backend.Artifact{ContentType: "application/octet-stream"}, want: "xlsx"},
		{name: "traversal ignored", a: backend.Artifact{Filename: "../../etc/passwd"}, want: "xlsx"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Extension(&tt.a))
		})
	}
}
