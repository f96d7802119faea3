package database

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type opKind int

const (
	opSave opKind = iota
	opDelete
)

type stagedOp struct {
	kind  opKind
	value any
}

// UnitOfWork stages entity writes and applies them in one transaction on
// Flush. Nothing is tracked implicitly: only values passed to Save or
// Delete are written.
type UnitOfWork struct {
	db  *gorm.DB
	ops []stagedOp
}

func NewUnitOfWork(db *gorm.DB) *UnitOfWork {
	return &UnitOfWork{db: db}
}

// DB returns a session for reads bound to ctx.
func (u *UnitOfWork) DB(ctx context.Context) *gorm.DB {
	return u.db.WithContext(ctx)
}

// Save stages an insert-or-update of entity (a pointer to a model).
func (u *UnitOfWork) Save(entity any) {
	u.ops = append(u.ops, stagedOp{kind: opSave, value: entity})
}

// Delete stages a delete of entity by primary key.
func (u *UnitOfWork) Delete(entity any) {
	u.ops = append(u.ops, stagedOp{kind: opDelete, value: entity})
}

// Pending is the number of staged operations.
func (u *UnitOfWork) Pending() int {
	return len(u.ops)
}

// Flush writes every staged operation in order inside one transaction.
// The stage is emptied whether or not the transaction commits.
func (u *UnitOfWork) Flush(ctx context.Context) error {
	ops := u.ops
	u.ops = nil
	if len(ops) == 0 {
		return nil
	}
	return u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, op := range ops {
			var err error
			switch op.kind {
			case opSave:
				err = tx.Omit(clause.Associations).Save(op.value).Error
			case opDelete:
				err = tx.Delete(op.value).Error
			}
			if err != nil {
				return fmt.Errorf("flush %T: %w", op.value, err)
			}
		}
		return nil
	})
}

// Discard drops staged operations that were never flushed.
func (u *UnitOfWork) Discard() {
	u.ops = nil
}
