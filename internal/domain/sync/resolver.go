package sync

import (
	"fmt"
	"time"

	"reptisync/internal/domain/entity"
)

type Verdict int

const (
	VerdictApply Verdict = iota
	VerdictIdempotent
	VerdictConflict
	VerdictNotFound
	VerdictForbidden
)

func (v Verdict) String() string {
	switch v {
	case VerdictApply:
		return "apply"
	case VerdictIdempotent:
		return "idempotent"
	case VerdictConflict:
		return "conflict"
	case VerdictNotFound:
		return "not_found"
	case VerdictForbidden:
		return "forbidden"
	default:
		return fmt.Sprintf("verdict(%d)", int(v))
	}
}

// Resolution входные данные для решения по одной операции.
// Existing nil, если записи нет. Incoming нужен только для CREATE.
type Resolution struct {
	Operation  OperationType
	UserID     int
	ClientTime time.Time
	Existing   entity.Entity
	Incoming   entity.Entity
}

// Resolver решает по принципу last-write-wins: применяется изменение,
// если clientTimestamp не старше updatedAt на сервере.
type Resolver struct {
	sameContent func(a, b entity.Entity) bool
}

func NewResolver() *Resolver {
	return &Resolver{sameContent: entity.SameContent}
}

func (r *Resolver) Resolve(in Resolution) (Verdict, error) {
	switch in.Operation {
	case OpCreate:
		if in.Existing == nil {
			return VerdictApply, nil
		}
		meta := in.Existing.Base()
		if !meta.Owned(in.UserID) {
			return VerdictForbidden, nil
		}
		if !meta.Deleted() && in.Incoming != nil && r.sameContent(in.Existing, in.Incoming) {
			return VerdictIdempotent, nil
		}
		return VerdictConflict, nil

	case OpUpdate, OpDelete:
		if in.Existing == nil {
			return VerdictNotFound, nil
		}
		meta := in.Existing.Base()
		if !meta.Owned(in.UserID) {
			return VerdictForbidden, nil
		}
		if meta.Deleted() {
			return VerdictNotFound, nil
		}
		if in.ClientTime.Before(meta.UpdatedAt) {
			return VerdictConflict, nil
		}
		return VerdictApply, nil

	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidOperation, in.Operation)
	}
}
