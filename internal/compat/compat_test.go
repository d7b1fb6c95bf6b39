package compat

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/google/uuid"
	"github.com/sebdah/goldie/v2"

	"github.com/julianstephens/sqirvy-health/internal/database"
	apperrors "github.com/julianstephens/sqirvy-health/internal/errors"
	"github.com/julianstephens/sqirvy-health/internal/models"
	"github.com/julianstephens/sqirvy-health/internal/storage"
)

type testEnv struct {
	db        *database.DB
	foods     *storage.FoodStore
	meals     *storage.MealStore
	weights   *storage.WeightStore
	projector *Projector
}

func setupTestEnv(t *testing.T) (*testEnv, func()) {
	t.Helper()
	db, err := database.Open(database.Options{Driver: database.SQLite, DSN: filepath.Join(t.TempDir(), "test.db")})
	if err != nil {
		t.Fatalf("database.Open() failed: %v", err)
	}
	if _, err := db.Migrate(context.Background(), nil); err != nil {
		t.Fatalf("Migrate() failed: %v", err)
	}

	env := &testEnv{
		db:      db,
		foods:   storage.NewFoodStore(db),
		meals:   storage.NewMealStore(db),
		weights: storage.NewWeightStore(db),
	}
	env.projector = NewProjector(db, env.foods, env.meals, env.weights)
	return env, func() { db.Release() }
}

const sampleMeals = `{
  "meals": [
    {"date": "2025-08-14", "dinner": [{"id": 17, "name": "Oatmeal", "unit": "cup", "kcal": 150}]},
    {"date": "2025-08-15",
     "breakfast": [{"id": "a", "name": "Oatmeal", "unit": "cup", "kcal": 150, "quantity": 1}],
     "morning_snack": [{"id": "b", "name": "Apple", "unit": "piece", "kcal": 95, "quantity": 2}],
     "lunch": "none"}
  ],
  "foodDatabase": [
    {"name": "Oatmeal", "unit": "cup", "kcal": 150},
    {"name": "Apple", "unit": "piece", "kcal": 95}
  ]
}`

const sampleWeight = `{"weight": {"goal": 170, "daily": [
  {"date": "2025-08-14", "weight": 173},
  {"date": "2025-08-15", "weight": 172.4}
]}}`

func mustDecodeMeals(t *testing.T, s string) MealsDocument {
	t.Helper()
	doc, err := DecodeMeals([]byte(s))
	if err != nil {
		t.Fatalf("DecodeMeals() failed: %v", err)
	}
	return doc
}

func mustDecodeWeight(t *testing.T, s string) WeightDocument {
	t.Helper()
	doc, err := DecodeWeight([]byte(s))
	if err != nil {
		t.Fatalf("DecodeWeight() failed: %v", err)
	}
	return doc
}

func TestDecodeMealsSkipsNonListSlots(t *testing.T) {
	doc := mustDecodeMeals(t, sampleMeals)
	if len(doc.Meals) != 2 {
		t.Fatalf("len(Meals) = %d, want 2", len(doc.Meals))
	}
	day := doc.Meals[1]
	if _, ok := day.Slots[models.SlotLunch]; ok {
		t.Error("lunch slot should be skipped when it is not a list")
	}
	if got := len(day.Slots[models.SlotMorningSnack]); got != 1 {
		t.Errorf("morning_snack items = %d, want 1", got)
	}
	if day.TotalKcal != nil {
		t.Errorf("TotalKcal = %v, want nil", *day.TotalKcal)
	}
}

func TestDecodeMealsMissingArrays(t *testing.T) {
	doc := mustDecodeMeals(t, `{}`)
	if doc.Meals == nil || doc.FoodDatabase == nil {
		t.Fatalf("DecodeMeals({}) = %+v, want empty non-nil lists", doc)
	}

	w := mustDecodeWeight(t, `{"weight": {"goal": 150}}`)
	if w.Weight.Daily == nil || len(w.Weight.Daily) != 0 {
		t.Errorf("Daily = %v, want empty list", w.Weight.Daily)
	}
}

func TestItemIDAcceptsStringOrNumber(t *testing.T) {
	tests := []struct {
		input string
		want  ItemID
	}{
		{`{"id": "42"}`, "42"},
		{`{"id": 42}`, "42"},
		{`{"id": null}`, ""},
		{`{}`, ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			doc := mustDecodeMeals(t, `{"meals": [{"date": "2025-08-15", "lunch": [`+tt.input+`]}]}`)
			got := doc.Meals[0].Slots[models.SlotLunch][0].ID
			if got != tt.want {
				t.Errorf("ID = %q, want %q", got, tt.want)
			}
		})
	}

	if _, err := DecodeMeals([]byte(`{"meals": [{"date": "2025-08-15", "lunch": [{"id": true}]}]}`)); err == nil {
		t.Error("DecodeMeals() with boolean id should fail")
	}
}

func TestDayFromDocumentTotals(t *testing.T) {
	given := 999.0
	zero := 0.0
	tests := []struct {
		name  string
		total *float64
		want  float64
	}{
		{"computed when absent", nil, 245},
		{"kept when present", &given, 999},
		{"kept when zero", &zero, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := DayDocument{
				Date:      "2025-08-15",
				TotalKcal: tt.total,
				Slots: map[models.Slot][]ItemDocument{
					models.SlotBreakfast:    {{Name: "Oatmeal", Unit: "cup", Kcal: 150}},
					models.SlotMorningSnack: {{Name: "Apple", Unit: "piece", Kcal: 95}},
				},
			}
			day := DayFromDocument(doc)
			if day.Record.TotalKcal != tt.want {
				t.Errorf("TotalKcal = %v, want %v", day.Record.TotalKcal, tt.want)
			}
			if got := day.Buckets[models.SlotBreakfast][0].Quantity; got != 1 {
				t.Errorf("default quantity = %v, want 1", got)
			}
		})
	}
}

func TestExportMealsGolden(t *testing.T) {
	env, cleanup := setupTestEnv(t)
	defer cleanup()
	ctx := context.Background()

	if err := env.projector.ImportMeals(ctx, mustDecodeMeals(t, sampleMeals)); err != nil {
		t.Fatalf("ImportMeals() failed: %v", err)
	}
	doc, err := env.projector.ExportMeals(ctx)
	if err != nil {
		t.Fatalf("ExportMeals() failed: %v", err)
	}
	out, err := Encode(doc)
	if err != nil {
		t.Fatalf("Encode() failed: %v", err)
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "meals_export", out)
}

func TestExportWeightGolden(t *testing.T) {
	env, cleanup := setupTestEnv(t)
	defer cleanup()
	ctx := context.Background()

	if err := env.projector.ImportWeight(ctx, mustDecodeWeight(t, sampleWeight)); err != nil {
		t.Fatalf("ImportWeight() failed: %v", err)
	}
	doc, err := env.projector.ExportWeight(ctx)
	if err != nil {
		t.Fatalf("ExportWeight() failed: %v", err)
	}
	out, err := Encode(doc)
	if err != nil {
		t.Fatalf("Encode() failed: %v", err)
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "weight_export", out)
}

// stripIDs blanks item ids so documents from separate imports compare equal
func stripIDs(doc MealsDocument) MealsDocument {
	for i := range doc.Meals {
		for slot, items := range doc.Meals[i].Slots {
			for j := range items {
				items[j].ID = ""
			}
			doc.Meals[i].Slots[slot] = items
		}
	}
	return doc
}

func TestMealsRoundTrip(t *testing.T) {
	env, cleanup := setupTestEnv(t)
	defer cleanup()
	ctx := context.Background()

	if err := env.projector.ImportMeals(ctx, mustDecodeMeals(t, sampleMeals)); err != nil {
		t.Fatalf("ImportMeals() failed: %v", err)
	}
	first, err := env.projector.ExportMeals(ctx)
	if err != nil {
		t.Fatalf("ExportMeals() failed: %v", err)
	}
	encoded, err := Encode(first)
	if err != nil {
		t.Fatalf("Encode() failed: %v", err)
	}

	if err := env.projector.ImportMeals(ctx, mustDecodeMeals(t, string(encoded))); err != nil {
		t.Fatalf("second ImportMeals() failed: %v", err)
	}
	second, err := env.projector.ExportMeals(ctx)
	if err != nil {
		t.Fatalf("second ExportMeals() failed: %v", err)
	}

	if !reflect.DeepEqual(stripIDs(first), stripIDs(second)) {
		t.Errorf("round trip changed the document:\nfirst:  %+v\nsecond: %+v", first, second)
	}
}

func TestWeightRoundTrip(t *testing.T) {
	env, cleanup := setupTestEnv(t)
	defer cleanup()
	ctx := context.Background()

	if err := env.projector.ImportWeight(ctx, mustDecodeWeight(t, sampleWeight)); err != nil {
		t.Fatalf("ImportWeight() failed: %v", err)
	}
	first, err := env.projector.ExportWeight(ctx)
	if err != nil {
		t.Fatalf("ExportWeight() failed: %v", err)
	}
	if err := env.projector.ImportWeight(ctx, first); err != nil {
		t.Fatalf("second ImportWeight() failed: %v", err)
	}
	second, err := env.projector.ExportWeight(ctx)
	if err != nil {
		t.Fatalf("second ExportWeight() failed: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("ExportWeight() = %+v, want %+v", second, first)
	}
}

func TestImportWeightZeroGoal(t *testing.T) {
	env, cleanup := setupTestEnv(t)
	defer cleanup()
	ctx := context.Background()

	if err := env.projector.ImportWeight(ctx, mustDecodeWeight(t, `{"weight": {"goal": 0, "daily": []}}`)); err != nil {
		t.Fatalf("ImportWeight() failed: %v", err)
	}
	if _, found, err := env.weights.GetActiveGoal(ctx); err != nil || found {
		t.Errorf("GetActiveGoal() found = %v, err = %v, want no goal", found, err)
	}
	doc, err := env.projector.ExportWeight(ctx)
	if err != nil {
		t.Fatalf("ExportWeight() failed: %v", err)
	}
	if doc.Weight.Goal != 0 {
		t.Errorf("exported goal = %v, want 0", doc.Weight.Goal)
	}
}

func TestImportMealsIsAtomic(t *testing.T) {
	env, cleanup := setupTestEnv(t)
	defer cleanup()
	ctx := context.Background()

	if err := env.projector.ImportMeals(ctx, mustDecodeMeals(t, sampleMeals)); err != nil {
		t.Fatalf("ImportMeals() failed: %v", err)
	}

	bad := mustDecodeMeals(t, `{
	  "meals": [{"date": "2025-09-01"}, {"date": "bad"}],
	  "foodDatabase": [{"name": "Pear", "unit": "piece", "kcal": 60}]
	}`)
	if err := env.projector.ImportMeals(ctx, bad); err == nil {
		t.Fatal("ImportMeals() with malformed date should fail")
	}

	foods, err := env.foods.ListAll(ctx)
	if err != nil {
		t.Fatalf("ListAll() failed: %v", err)
	}
	if len(foods) != 2 {
		t.Errorf("catalog size after failed import = %d, want 2", len(foods))
	}
	days, err := env.meals.ListAllDays(ctx)
	if err != nil {
		t.Fatalf("ListAllDays() failed: %v", err)
	}
	if len(days) != 2 || days[0].Record.Date != "2025-08-15" {
		t.Errorf("days after failed import = %d, want the original 2", len(days))
	}
}

func fixedRunID(t *testing.T) func() (uuid.UUID, error) {
	t.Helper()
	id := uuid.MustParse("01890a5d-ac96-774b-bcce-b302099a8057")
	return func() (uuid.UUID, error) { return id, nil }
}

func TestMigratorRun(t *testing.T) {
	env, cleanup := setupTestEnv(t)
	defer cleanup()
	ctx := context.Background()

	dir := t.TempDir()
	files := LegacyFiles{
		MealsPath:  filepath.Join(dir, "meals.json"),
		WeightPath: filepath.Join(dir, "weight.json"),
		BackupRoot: filepath.Join(dir, "legacy-backup"),
	}
	if err := os.WriteFile(files.MealsPath, []byte(sampleMeals), 0600); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(files.WeightPath, []byte(sampleWeight), 0600); err != nil {
		t.Fatal(err)
	}

	m := NewMigrator(env.projector)
	m.newRunID = fixedRunID(t)
	report, err := m.Run(ctx, files)
	if err != nil {
		t.Fatalf("Run() failed: %v", err)
	}

	if report.RunID != "01890a5d-ac96-774b-bcce-b302099a8057" {
		t.Errorf("RunID = %q", report.RunID)
	}
	if report.FoodItems != 2 || report.Days != 2 || report.WeightEntries != 2 || report.Goal != 170 {
		t.Errorf("report = %+v, want 2 foods, 2 days, 2 entries, goal 170", report)
	}
	if !report.MealsImported {
		t.Error("MealsImported = false, want true")
	}
	if len(report.BackedUp) != 2 {
		t.Fatalf("BackedUp = %v, want 2 files", report.BackedUp)
	}

	backup, err := os.ReadFile(filepath.Join(report.BackupDir, "meals.json"))
	if err != nil {
		t.Fatalf("reading backup failed: %v", err)
	}
	if !bytes.Equal(backup, []byte(sampleMeals)) {
		t.Error("meals backup does not match the original file")
	}
	if _, err := os.Stat(files.MealsPath); err != nil {
		t.Errorf("original meals file should remain: %v", err)
	}
}

func TestMigratorRunDefaults(t *testing.T) {
	env, cleanup := setupTestEnv(t)
	defer cleanup()
	ctx := context.Background()

	dir := t.TempDir()
	files := LegacyFiles{
		MealsPath:  filepath.Join(dir, "meals.json"),
		WeightPath: filepath.Join(dir, "weight.json"),
		BackupRoot: filepath.Join(dir, "legacy-backup"),
	}

	report, err := NewMigrator(env.projector).Run(ctx, files)
	if err != nil {
		t.Fatalf("Run() failed: %v", err)
	}
	if report.Goal != 150 {
		t.Errorf("Goal = %v, want default 150", report.Goal)
	}
	if report.MealsImported || report.Days != 0 || report.FoodItems != 0 {
		t.Errorf("report = %+v, want nothing imported for meals", report)
	}
	if report.BackupDir != "" || len(report.BackedUp) != 0 {
		t.Errorf("backup = %q %v, want none without input files", report.BackupDir, report.BackedUp)
	}
	if _, err := uuid.Parse(report.RunID); err != nil {
		t.Errorf("RunID %q is not a uuid: %v", report.RunID, err)
	}
}

func TestMigratorRunInvalidDocument(t *testing.T) {
	env, cleanup := setupTestEnv(t)
	defer cleanup()

	dir := t.TempDir()
	files := LegacyFiles{MealsPath: filepath.Join(dir, "meals.json"), BackupRoot: dir}
	if err := os.WriteFile(files.MealsPath, []byte("{not json"), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := NewMigrator(env.projector).Run(context.Background(), files); err == nil {
		t.Fatal("Run() with malformed meals file should fail")
	}
	days, err := env.meals.ListAllDays(context.Background())
	if err != nil {
		t.Fatalf("ListAllDays() failed: %v", err)
	}
	if len(days) != 0 {
		t.Errorf("days = %d, want 0", len(days))
	}
}

func TestVerifyDetectsMismatch(t *testing.T) {
	env, cleanup := setupTestEnv(t)
	defer cleanup()

	m := NewMigrator(env.projector)
	doc := mustDecodeMeals(t, sampleMeals)
	_, err := m.verify(context.Background(), Report{MealsImported: true}, doc, WeightDocument{}.normalized())
	if !errors.Is(err, apperrors.ErrInvariantBreach) {
		t.Errorf("verify() error = %v, want ErrInvariantBreach", err)
	}
}

func TestWriteFileAtomic(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.json")
	if err := WriteFileAtomic(path, []byte("one")); err != nil {
		t.Fatalf("WriteFileAtomic() failed: %v", err)
	}
	if err := WriteFileAtomic(path, []byte("two")); err != nil {
		t.Fatalf("WriteFileAtomic() overwrite failed: %v", err)
	}
	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "two" {
		t.Errorf("content = %q, want %q", got, "two")
	}
	entries, _ := os.ReadDir(filepath.Dir(path))
	if len(entries) != 1 {
		t.Errorf("directory has %d entries, want 1 (no temp files left)", len(entries))
	}

	if err := WriteFileAtomic(filepath.Join(t.TempDir(), "missing", "out.json"), nil); err == nil {
		t.Error("WriteFileAtomic() into missing directory should fail")
	}
}
