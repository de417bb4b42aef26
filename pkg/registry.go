package converter

import (
	"encoding/json"
	"fmt"
	"os"

	_ "github.com/go-sql-driver/mysql"
	sqlx "github.com/jmoiron/sqlx"
)

// SubjectRegistry resolves a subject id to its fixed biological
// metadata. Queried once per conversion, never mutated here.
type SubjectRegistry interface {
	Lookup(subjectID string) (SubjectInfo, error)
}

func ConnectToRegistry(user string, pass string, host string, dbname string) (*sqlx.DB, error) {
	port := "3306"
	dbURI := fmt.Sprintf("%s:%s@(%s:%s)/%s?parseTime=true", user, pass, host, port, dbname)
	db, err := sqlx.Connect("mysql", dbURI)
	return db, err
}

// DBRegistry looks subjects up in the lab's subject database.
type DBRegistry struct {
	DB *sqlx.DB
}

type subjectInfoEntry struct {
	Line       string `db:"Line"`
	Age        string `db:"Age"`
	Anesthesia string `db:"Anesthesia"`
	Indicator  string `db:"Indicator"`
}

func (r *DBRegistry) Lookup(subjectID string) (SubjectInfo, error) {
	query := "SELECT Line, Age, Anesthesia, Indicator FROM SubjectInfo WHERE SubjectID = ?"
	if configuration.Verbosity > 0 {
		logger.Info(fmt.Sprintf("Reading subject %s from database", subjectID), "registry")
	}
	if configuration.Verbosity > 2 {
		logger.Info(fmt.Sprintf("Query: %s", query), "registry")
	}

	rows, err := r.DB.Queryx(query, subjectID)
	if err != nil {
		return SubjectInfo{}, fmt.Errorf("error querying subject registry: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		return SubjectInfo{}, &UnknownSubjectError{SubjectID: subjectID}
	}
	entry := subjectInfoEntry{}
	if err := rows.StructScan(&entry); err != nil {
		return SubjectInfo{}, fmt.Errorf("error scanning registry row: %w", err)
	}
	return SubjectInfo{
		Line:       entry.Line,
		Age:        entry.Age,
		Anesthesia: entry.Anesthesia,
		Indicator:  entry.Indicator,
	}, nil
}

// StaticRegistry serves no-DB runs from an in-memory table.
type StaticRegistry struct {
	Subjects map[string]SubjectInfo
}

func NewStaticRegistry(subjects map[string]SubjectInfo) *StaticRegistry {
	return &StaticRegistry{Subjects: subjects}
}

// LoadStaticRegistry reads a subject table from a JSON file keyed by
// subject id. An empty path yields an empty registry; every lookup will
// then miss.
func LoadStaticRegistry(path string) (*StaticRegistry, error) {
	registry := &StaticRegistry{Subjects: make(map[string]SubjectInfo)}
	if path == "" {
		return registry, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading subjects file %q: %w", path, err)
	}
	if err := json.Unmarshal(data, &registry.Subjects); err != nil {
		return nil, fmt.Errorf("error parsing subjects file %q: %w", path, err)
	}
	return registry, nil
}

func (r *StaticRegistry) Lookup(subjectID string) (SubjectInfo, error) {
	info, ok := r.Subjects[subjectID]
	if !ok {
		return SubjectInfo{}, &UnknownSubjectError{SubjectID: subjectID}
	}
	return info, nil
}
