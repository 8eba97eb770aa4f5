package dummydb

import (
	"context"

	"github.com/proclass/backend/core/reminder"
)

type reminderLedger struct {
	db *reminderLogTable
}

var _ reminder.Ledger = (*reminderLedger)(nil) // interface compliance check

func NewReminderLedger(db *DB) reminder.Ledger {
	return &reminderLedger{db: db.reminderLog}
}

func (repo *reminderLedger) HasBeenSent(_ context.Context, teacherID, studentID, referenceMonth string) (bool, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	_, ok := repo.db.table[tripleKey{teacherID, studentID, referenceMonth}]
	return ok, nil
}

func (repo *reminderLedger) Record(_ context.Context, entry reminder.LogEntry) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	key := tripleKey{entry.TeacherID, entry.StudentID, entry.ReferenceMonth}
	if _, ok := repo.db.table[key]; ok {
		return reminder.ErrDuplicateEntry
	}
	repo.db.table[key] = &entry
	return nil
}

func (repo *reminderLedger) QueryEntriesByTeacher(_ context.Context, teacherID, referenceMonth string) ([]reminder.LogEntry, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	entries := make([]reminder.LogEntry, 0)
	for key, e := range repo.db.table {
		if key.teacherID != teacherID {
			continue
		}
		if referenceMonth != "" && key.referenceMonth != referenceMonth {
			continue
		}
		entries = append(entries, *e)
	}
	return entries, nil
}

type policyRepository struct {
	db *policyTable
}

var _ reminder.PolicyRepository = (*policyRepository)(nil) // interface compliance check

func NewPolicyRepository(db *DB) reminder.PolicyRepository {
	return &policyRepository{db: db.policy}
}

func (repo *policyRepository) GetPolicyByTeacher(_ context.Context, teacherID string) (reminder.Policy, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if pol, ok := repo.db.table[teacherID]; ok {
		return *pol, nil
	}
	return reminder.Policy{}, reminder.ErrPolicyNotFound
}

func (repo *policyRepository) UpsertPolicy(_ context.Context, pol reminder.Policy) (reminder.Policy, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	repo.db.table[pol.TeacherID] = &pol
	return pol, nil
}
