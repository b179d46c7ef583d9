package query

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/hupe1980/cocogo"
	"github.com/hupe1980/cocogo/builder"
)

type capture struct {
	ID                 uint    `gorm:"primaryKey"`
	BoothName          string  `gorm:"column:BoothName"`
	BucketRegion       string  `gorm:"column:BucketRegion"`
	S3Bucket           string  `gorm:"column:S3Bucket"`
	CaptureFolderID    string  `gorm:"column:CaptureFolderId"`
	SpecificationClass string  `gorm:"column:SpecificationClass"`
	CaptureDate        *string `gorm:"column:CaptureDate;type:text"`
}

func (capture) TableName() string { return "captures" }

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	// Every pooled connection would open its own in-memory database.
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(&capture{}))

	var rows []capture
	for i := range 6 {
		date := fmt.Sprintf("2024-01-%02d", i+1)
		rows = append(rows,
			capture{BoothName: "north", BucketRegion: "eu-west-1", S3Bucket: "bucket", CaptureFolderID: fmt.Sprintf("cat-%d", i), SpecificationClass: "cat", CaptureDate: &date},
			capture{BoothName: "north", BucketRegion: "eu-west-1", S3Bucket: "bucket", CaptureFolderID: fmt.Sprintf("dog-%d", i), SpecificationClass: "dog", CaptureDate: &date},
		)
	}
	rows = append(rows, capture{BoothName: "south", BucketRegion: "eu-west-1", S3Bucket: "bucket", CaptureFolderID: "bird-0", SpecificationClass: "bird"})
	require.NoError(t, db.Create(&rows).Error)

	return db
}

func TestCapturesQuery_Build(t *testing.T) {
	q, err := CapturesQuery{
		Table:           "dbo.captures",
		Booth:           "north",
		Classes:         []string{"cat", "dog"},
		SamplesPerClass: 10,
		StartDate:       "2024-01-01",
		EndDate:         "2024-02-01",
	}.Build()
	require.NoError(t, err)

	assert.Contains(t, q.Statement, "FROM dbo.captures")
	assert.Contains(t, q.Statement, "SpecificationClass IN (?, ?)")
	assert.Contains(t, q.Statement, "ROW_NUMBER() OVER (PARTITION BY SpecificationClass")
	assert.Equal(t, []any{"north", "cat", "dog", "2024-01-01", "2024-02-01", 10}, q.Args)
	assert.Equal(t, q.Statement, q.String())
}

func TestCapturesQuery_InvalidTable(t *testing.T) {
	for _, name := range []string{"", "captures; DROP TABLE x", "1abc", "a.b.c"} {
		_, err := CapturesQuery{Table: name}.Build()
		assert.ErrorIs(t, err, cocogo.ErrValidation, name)
	}

	_, err := CapturesQuery{Table: "captures", SamplesPerClass: -1}.Build()
	assert.ErrorIs(t, err, cocogo.ErrValidation)
}

func TestClient_Run(t *testing.T) {
	db := setupTestDB(t)

	var logs bytes.Buffer
	client := NewClient(db, WithLogger(cocogo.NewLogger(slog.NewTextHandler(&logs, nil))))

	q, err := CapturesQuery{
		Table:           "captures",
		Booth:           "north",
		Classes:         []string{"cat", "dog"},
		SamplesPerClass: 2,
		StartDate:       "2024-01-02",
	}.Build()
	require.NoError(t, err)

	tbl, err := client.Run(context.Background(), q)
	require.NoError(t, err)

	require.Equal(t, 4, tbl.Len())
	assert.Empty(t, tbl.HasColumns(builder.RequiredColumns...))

	var folders []string
	for _, row := range tbl.All() {
		folders = append(folders, row[ColumnCaptureFolderID])
	}
	assert.Equal(t, []string{"cat-1", "cat-2", "dog-1", "dog-2"}, folders)
	assert.Contains(t, logs.String(), "query completed")
}

func TestClient_RunNullValues(t *testing.T) {
	db := setupTestDB(t)
	client := NewClient(db)

	q, err := CapturesQuery{Table: "captures", Booth: "south"}.Build()
	require.NoError(t, err)

	tbl, err := client.Run(context.Background(), q)
	require.NoError(t, err)
	require.Equal(t, 1, tbl.Len())

	_, ok := tbl.Row(0).Get(ColumnCaptureDate)
	assert.False(t, ok)
}

func TestClient_RunEmpty(t *testing.T) {
	db := setupTestDB(t)
	client := NewClient(db)

	q, err := CapturesQuery{Table: "captures", Classes: []string{"unicorn"}}.Build()
	require.NoError(t, err)

	_, err = client.Run(context.Background(), q)
	require.ErrorIs(t, err, cocogo.ErrEmptyResult)

	var ee *cocogo.EmptyResultError
	require.ErrorAs(t, err, &ee)
	assert.Equal(t, q.Statement, ee.Statement)
}

func TestClient_RunInvalidStatement(t *testing.T) {
	client := NewClient(setupTestDB(t))

	_, err := client.Run(context.Background(), Query{Statement: "SELECT * FROM missing"})
	require.Error(t, err)
	assert.NotErrorIs(t, err, cocogo.ErrEmptyResult)
}

func TestOpen(t *testing.T) {
	client, err := Open(DialectSQLite, ":memory:")
	require.NoError(t, err)
	require.NoError(t, client.DB().Exec("CREATE TABLE t (x TEXT)").Error)
	require.NoError(t, client.Close())

	_, err = Open("mssql", "")
	assert.ErrorIs(t, err, cocogo.ErrValidation)
}
