// Package job implements the scheduled pipeline jobs and their coordination
package job

import (
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"aggregate-news/entity"
)

// ErrAlreadyLocked is returned when another run holds a live lock
var ErrAlreadyLocked = errors.New("job is already locked")

// AcquireLock takes the lock for a job kind with a single conditional
// insert. The unique index on the job column makes contention a typed
// outcome instead of a check-then-act race.
func AcquireLock(dbConnect *gorm.DB, kind Kind) (*entity.JobLock, error) {
	lock := entity.JobLock{Job: string(kind), LockDatetime: time.Now().UTC()}
	result := dbConnect.Clauses(clause.OnConflict{DoNothing: true}).Create(&lock)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, ErrAlreadyLocked
	}
	return &lock, nil
}

// IsLocked reports whether a live lock record exists for the kind
func IsLocked(dbConnect *gorm.DB, kind Kind) (bool, error) {
	var count int64
	result := dbConnect.Model(&entity.JobLock{}).Where("job = ?", string(kind)).Count(&count)
	if result.Error != nil {
		return false, result.Error
	}
	return count > 0, nil
}

// IsExpired reports whether the kind's lock is older than the timeout,
// meaning the run that held it crashed or stalled
func IsExpired(dbConnect *gorm.DB, kind Kind, timeoutMinutes int) (bool, error) {
	var lock entity.JobLock
	result := dbConnect.Where("job = ?", string(kind)).First(&lock)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, result.Error
	}
	deadline := time.Now().UTC().Add(-time.Duration(timeoutMinutes) * time.Minute)
	return lock.LockDatetime.Before(deadline), nil
}

// ReleaseLock removes a held lock
func ReleaseLock(dbConnect *gorm.DB, lock *entity.JobLock) error {
	result := dbConnect.Delete(&entity.JobLock{}, lock.ID)
	return result.Error
}

// clearExpired removes a stale lock left by a crashed run
func clearExpired(dbConnect *gorm.DB, kind Kind) error {
	result := dbConnect.Where("job = ?", string(kind)).Delete(&entity.JobLock{})
	return result.Error
}

// acquire takes the lock, recovering a stale one first. A live unexpired
// lock means this invocation should be skipped entirely.
func acquire(dbConnect *gorm.DB, kind Kind) (*entity.JobLock, error) {
	lock, err := AcquireLock(dbConnect, kind)
	if err == nil {
		return lock, nil
	}
	if !errors.Is(err, ErrAlreadyLocked) {
		return nil, err
	}
	expired, err := IsExpired(dbConnect, kind, lockTimeout(kind))
	if err != nil {
		return nil, err
	}
	if !expired {
		return nil, ErrAlreadyLocked
	}
	if err := clearExpired(dbConnect, kind); err != nil {
		return nil, err
	}
	return AcquireLock(dbConnect, kind)
}
