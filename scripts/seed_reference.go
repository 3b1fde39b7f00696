// seed_reference.go — standalone script to load the reference CSVs
// (courses, user preferences, interactions) into Postgres.
//
// Usage:
//
//	go run scripts/seed_reference.go -db postgres://localhost/sentinel -data ./data -truncate
package main

import (
	"context"
	"encoding/csv"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
)

type table struct {
	file    string
	name    string
	columns []string
	// transform maps a CSV record (keyed by header) to insert arguments.
	transform func(row map[string]string) ([]interface{}, error)
}

var tables = []table{
	{
		file: "courses.csv",
		name: "courses",
		columns: []string{"course_id", "title", "domain", "description", "learning_objectives",
			"difficulty", "duration_weeks", "format", "platform", "cost", "rating"},
		transform: func(row map[string]string) ([]interface{}, error) {
			duration, err := strconv.ParseFloat(row["duration_weeks"], 64)
			if err != nil {
				return nil, fmt.Errorf("duration_weeks: %w", err)
			}
			rating, err := strconv.ParseFloat(row["rating"], 64)
			if err != nil {
				return nil, fmt.Errorf("rating: %w", err)
			}
			return []interface{}{
				row["course_id"], row["title"], row["domain"], row["description"],
				row["learning_objectives"], row["difficulty"], duration,
				row["format"], row["platform"], row["cost"], rating,
			}, nil
		},
	},
	{
		file: "user_preferences.csv",
		name: "user_preferences",
		columns: []string{"user_id", "domain_interests", "learning_pace", "knowledge_level",
			"cost_preference", "course_format", "preferred_platforms"},
		transform: func(row map[string]string) ([]interface{}, error) {
			return []interface{}{
				row["user_id"], row["domain_interests"], row["learning_pace"],
				row["knowledge_level"], row["cost_preference"], row["course_format"],
				row["preferred_platforms"],
			}, nil
		},
	},
	{
		file:    "user_course_interactions.csv",
		name:    "user_course_interactions",
		columns: []string{"user_id", "course_id", "rating", "implicit_rating", "completion_status"},
		transform: func(row map[string]string) ([]interface{}, error) {
			rating, err := strconv.ParseFloat(row["rating"], 64)
			if err != nil {
				return nil, fmt.Errorf("rating: %w", err)
			}
			implicit, err := strconv.ParseFloat(row["implicit_rating"], 64)
			if err != nil {
				return nil, fmt.Errorf("implicit_rating: %w", err)
			}
			return []interface{}{
				row["user_id"], row["course_id"], rating, implicit, row["completion_status"],
			}, nil
		},
	},
}

func main() {
	dbURL := flag.String("db", os.Getenv("SENTINEL_DATABASE_URL"), "Postgres connection string")
	dataDir := flag.String("data", "data", "directory holding the reference CSVs")
	truncate := flag.Bool("truncate", false, "truncate each table before loading")
	flag.Parse()

	if *dbURL == "" {
		log.Fatal("-db or SENTINEL_DATABASE_URL required")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, *dbURL)
	if err != nil {
		log.Fatalf("connect: %v", err)
	}
	defer pool.Close()

	for _, t := range tables {
		n, err := loadTable(ctx, pool, t, filepath.Join(*dataDir, t.file), *truncate)
		if err != nil {
			log.Fatalf("%s: %v", t.file, err)
		}
		log.Printf("loaded %d rows into %s", n, t.name)
	}
}

func loadTable(ctx context.Context, pool *pgxpool.Pool, t table, path string, truncate bool) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	header, err := r.Read()
	if err != nil {
		return 0, fmt.Errorf("read header: %w", err)
	}
	index := make(map[string]int, len(header))
	for i, h := range header {
		index[h] = i
	}
	for _, col := range t.columns {
		if _, ok := index[col]; !ok {
			return 0, fmt.Errorf("missing column %q", col)
		}
	}

	if truncate {
		if _, err := pool.Exec(ctx, "TRUNCATE "+t.name); err != nil {
			return 0, fmt.Errorf("truncate: %w", err)
		}
	}

	placeholders := ""
	for i := range t.columns {
		if i > 0 {
			placeholders += ", "
		}
		placeholders += fmt.Sprintf("$%d", i+1)
	}
	stmt := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		t.name, strings.Join(t.columns, ", "), placeholders)

	count := 0
	for {
		record, err := r.Read()
		if err != nil {
			break
		}
		row := make(map[string]string, len(t.columns))
		for col, i := range index {
			if i < len(record) {
				row[col] = record[i]
			}
		}
		args, err := t.transform(row)
		if err != nil {
			return count, fmt.Errorf("row %d: %w", count+1, err)
		}
		if _, err := pool.Exec(ctx, stmt, args...); err != nil {
			return count, fmt.Errorf("insert row %d: %w", count+1, err)
		}
		count++
	}
	return count, nil
}
