package pipeline

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"go.uber.org/zap/zaptest"

	"github.com/mkoziy/sparkify/loader/internal/database"
	"github.com/mkoziy/sparkify/loader/internal/migrations"
	"github.com/mkoziy/sparkify/loader/internal/models"
	"github.com/mkoziy/sparkify/loader/internal/repositories"
)

const songFile = `{"num_songs": 1, "artist_id": "AR5KOSW1187FB35FF4", "artist_latitude": 49.80388, "artist_longitude": 15.47491, "artist_location": "Dubai UAE", "artist_name": "Elena", "song_id": "SOSNUSR12AB018632C", "title": "Setanta matins", "duration": 269.58322, "year": 0}
`

const otherSongFile = `{"num_songs": 1, "artist_id": "ARMJAGH1187FB546F3", "artist_latitude": 35.14968, "artist_longitude": -90.04892, "artist_location": "Memphis, TN", "artist_name": "The Box Tops", "song_id": "SOCIWDW12A8C13D406", "title": "Soul Deep", "duration": 148.03546, "year": 1969}
`

const logFile = `{"artist":null,"auth":"Logged In","firstName":"Walter","gender":"M","itemInSession":0,"lastName":"Frye","length":null,"level":"free","location":"San Francisco-Oakland-Hayward, CA","method":"GET","page":"Home","registration":1540919166796.0,"sessionId":38,"song":null,"status":200,"ts":1541105830796,"userAgent":"Mozilla\/5.0","userId":"39"}
{"artist":"Elena","auth":"Logged In","firstName":"Kaylee","gender":"F","itemInSession":2,"lastName":"Summers","length":269.58322,"level":"free","location":"Phoenix-Mesa-Scottsdale, AZ","method":"PUT","page":"NextSong","registration":1540344794796.0,"sessionId":139,"song":"Setanta matins","status":200,"ts":1541106106796,"userAgent":"Mozilla\/5.0","userId":"8"}
{"artist":"Des'ree","auth":"Logged In","firstName":"Kaylee","gender":"F","itemInSession":1,"lastName":"Summers","length":246.30812,"level":"paid","location":"Phoenix-Mesa-Scottsdale, AZ","method":"PUT","page":"NextSong","registration":1540344794796.0,"sessionId":139,"song":"You Gotta Be","status":200,"ts":1541106352796,"userAgent":"Mozilla\/5.0","userId":"8"}
`

type fixture struct {
	db       *bun.DB
	songRoot string
	logRoot  string
	out      *bytes.Buffer
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dir := t.TempDir()
	db, err := database.NewDB("file:"+filepath.Join(dir, "sparkify.db"), false)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, migrations.RunMigrations(context.Background(), db, zaptest.NewLogger(t)))

	f := &fixture{
		db:       db,
		songRoot: filepath.Join(dir, "song_data"),
		logRoot:  filepath.Join(dir, "log_data"),
		out:      &bytes.Buffer{},
	}
	require.NoError(t, os.MkdirAll(f.songRoot, 0o755))
	require.NoError(t, os.MkdirAll(f.logRoot, 0o755))
	return f
}

func (f *fixture) write(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func (f *fixture) pipeline(t *testing.T, opts Options) *Pipeline {
	return New(f.db, zaptest.NewLogger(t), f.out, opts)
}

func (f *fixture) count(t *testing.T, model interface{}) int {
	t.Helper()
	n, err := repositories.CountRows(context.Background(), f.db, model)
	require.NoError(t, err)
	return n
}

func TestRunEndToEnd(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.write(t, f.songRoot, "A/A/A/TRAAAAW128F429D538.json", songFile)
	f.write(t, f.logRoot, "2018/11/2018-11-01-events.json", logFile)

	p := f.pipeline(t, Options{})
	require.NoError(t, p.Run(ctx, f.songRoot, f.logRoot))

	out := f.out.String()
	require.Contains(t, out, "1 files found in "+f.songRoot)
	require.Contains(t, out, "1 files found in "+f.logRoot)
	require.Equal(t, 2, strings.Count(out, "1/1 files processed."))

	var plays []*models.Songplay
	require.NoError(t, f.db.NewSelect().Model(&plays).OrderExpr("start_time ASC").Scan(ctx))
	require.Len(t, plays, 2)

	require.True(t, plays[0].IsResolved())
	require.Equal(t, "SOSNUSR12AB018632C", *plays[0].SongID)
	require.Equal(t, "AR5KOSW1187FB35FF4", *plays[0].ArtistID)
	require.Equal(t, int64(8), plays[0].UserID)
	require.Equal(t, int64(139), plays[0].SessionID)

	require.Nil(t, plays[1].SongID)
	require.Nil(t, plays[1].ArtistID)

	require.Equal(t, 2, f.count(t, (*models.Time)(nil)))
	require.Equal(t, 1, f.count(t, (*models.User)(nil)))

	runs, err := repositories.GetRuns(ctx, f.db, p.RunID())
	require.NoError(t, err)
	require.Len(t, runs, 2)
	for _, r := range runs {
		require.Equal(t, models.RunCompleted, r.Status)
		require.Equal(t, 1, r.FilesLoaded)
	}
}

func TestRerunKeepsDimensionsIdempotent(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.write(t, f.songRoot, "A/A/A/TRAAAAW128F429D538.json", songFile+otherSongFile+songFile)
	f.write(t, f.logRoot, "2018/11/2018-11-01-events.json", logFile)

	require.NoError(t, f.pipeline(t, Options{}).Run(ctx, f.songRoot, f.logRoot))
	songs := f.count(t, (*models.Song)(nil))
	artists := f.count(t, (*models.Artist)(nil))
	users := f.count(t, (*models.User)(nil))
	require.Equal(t, 2, songs)
	require.Equal(t, 2, artists)
	require.Equal(t, 1, users)

	require.NoError(t, f.pipeline(t, Options{}).Run(ctx, f.songRoot, f.logRoot))
	require.Equal(t, songs, f.count(t, (*models.Song)(nil)))
	require.Equal(t, artists, f.count(t, (*models.Artist)(nil)))
	require.Equal(t, users, f.count(t, (*models.User)(nil)))

	// Facts are not protected against a re-run.
	require.Equal(t, 4, f.count(t, (*models.Songplay)(nil)))
	require.Equal(t, 4, f.count(t, (*models.Time)(nil)))

	require.NoError(t, repositories.TruncateFacts(ctx, f.db))
	require.Zero(t, f.count(t, (*models.Songplay)(nil)))
}

func TestUserConflictPolicy(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.write(t, f.logRoot, "events.json", logFile)

	require.NoError(t, f.pipeline(t, Options{}).Run(ctx, f.songRoot, f.logRoot))
	user, err := repositories.GetUser(ctx, f.db, 8)
	require.NoError(t, err)
	require.Equal(t, models.LevelFree, user.Level)

	latest := Options{Users: repositories.UserConflict(true)}
	require.NoError(t, f.pipeline(t, latest).Run(ctx, f.songRoot, f.logRoot))
	user, err = repositories.GetUser(ctx, f.db, 8)
	require.NoError(t, err)
	require.Equal(t, models.LevelPaid, user.Level)
}

func TestParseErrorSkipsFile(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.write(t, f.songRoot, "a.json", songFile)
	f.write(t, f.songRoot, "b.json", otherSongFile+"{broken\n")
	f.write(t, f.logRoot, "events.json", logFile)

	p := f.pipeline(t, Options{})
	err := p.Run(ctx, f.songRoot, f.logRoot)
	require.Error(t, err)
	require.False(t, IsFatal(err))

	var perr *ParseError
	require.True(t, errors.As(err, &perr))
	require.Equal(t, 2, perr.Line)

	// b.json is rolled back as a whole; a.json and the log tree still load.
	require.Equal(t, 1, f.count(t, (*models.Song)(nil)))
	require.Equal(t, 2, f.count(t, (*models.Songplay)(nil)))
	require.Contains(t, f.out.String(), "2/2 files processed.")

	runs, err := repositories.GetRuns(ctx, f.db, p.RunID())
	require.NoError(t, err)
	require.Equal(t, models.RunPartial, runs[0].Status)
	require.Equal(t, 1, runs[0].FilesFailed)
	require.NotNil(t, runs[0].ErrorLog)
}

func TestLoadErrorRollsBackFile(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	noDuration := `{"artist_id": "AR1", "artist_name": "A", "song_id": "SO1", "title": "T", "duration": null, "year": 2000}` + "\n"
	f.write(t, f.songRoot, "bad.json", otherSongFile+noDuration)

	p := f.pipeline(t, Options{})
	err := p.ProcessData(ctx, models.SourceSongData, f.songRoot, p.ProcessSongFile)

	var lerr *LoadError
	require.ErrorAs(t, err, &lerr)
	require.False(t, lerr.Conn)
	require.Contains(t, lerr.Error(), "duration")
	require.Zero(t, f.count(t, (*models.Song)(nil)))
	require.Zero(t, f.count(t, (*models.Artist)(nil)))
}

func TestLogWithoutUserIsLoadError(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.write(t, f.logRoot, "events.json", `{"page":"NextSong","ts":1541106106796,"userId":"","level":"free","sessionId":1}`+"\n")

	p := f.pipeline(t, Options{})
	err := p.ProcessData(ctx, models.SourceLogData, f.logRoot, p.ProcessLogFile)
	var lerr *LoadError
	require.ErrorAs(t, err, &lerr)
	require.Equal(t, "songplays", lerr.Table)
	require.Zero(t, f.count(t, (*models.Time)(nil)))
}

func TestDiscoveryErrorAbortsRun(t *testing.T) {
	f := newFixture(t)
	f.write(t, f.logRoot, "events.json", logFile)

	err := f.pipeline(t, Options{}).Run(context.Background(), filepath.Join(f.songRoot, "absent"), f.logRoot)
	var derr *DiscoveryError
	require.ErrorAs(t, err, &derr)
	require.True(t, IsFatal(err))
	require.NotContains(t, f.out.String(), "files found")
	require.Zero(t, f.count(t, (*models.Songplay)(nil)))
}

func TestLostConnectionAbortsRun(t *testing.T) {
	f := newFixture(t)
	f.write(t, f.songRoot, "a.json", songFile)

	p := f.pipeline(t, Options{})
	require.NoError(t, f.db.Close())

	err := p.Run(context.Background(), f.songRoot, f.logRoot)
	var lerr *LoadError
	require.ErrorAs(t, err, &lerr)
	require.True(t, lerr.Conn)
	require.True(t, IsFatal(err))
	require.NotContains(t, f.out.String(), "files found in "+f.logRoot)
}

func TestFailedFileIsRolledBack(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.write(t, f.songRoot, "a.json", songFile)
	f.write(t, f.songRoot, "b.json", songFile)

	boom := errors.New("constraint violated")
	fn := func(ctx context.Context, db bun.IDB, path string) (int64, error) {
		failing := strings.HasSuffix(path, "b.json")
		id := int64(1)
		if failing {
			id = 2
		}
		_, err := repositories.InsertUsers(ctx, db, []*models.User{{UserID: id, Level: models.LevelFree}}, repositories.UserConflict(false))
		require.NoError(t, err)
		if failing {
			return 0, &LoadError{Path: path, Table: "users", Err: boom}
		}
		return 1, nil
	}

	p := f.pipeline(t, Options{})
	err := p.ProcessData(ctx, models.SourceSongData, f.songRoot, fn)
	require.ErrorIs(t, err, boom)
	require.Equal(t, 1, f.count(t, (*models.User)(nil)))
	_, err = repositories.GetUser(ctx, f.db, 1)
	require.NoError(t, err)
}
