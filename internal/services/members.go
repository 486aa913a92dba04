package services

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/mrlokans/librarydesk/internal/database"
	"github.com/mrlokans/librarydesk/internal/entities"
)

// MemberService manages the member roster.
type MemberService struct {
	db      *database.Database
	clock   Clock
	auditor Auditor
}

func NewMemberService(db *database.Database, clock Clock, auditor Auditor) *MemberService {
	return &MemberService{
		db:      db,
		clock:   clockOrSystem(clock),
		auditor: auditorOrNoop(auditor),
	}
}

// ListMembers returns every member when query is empty, otherwise the members
// whose name, email or phone contains query.
func (s *MemberService) ListMembers(ctx context.Context, query string) ([]entities.Member, error) {
	repo := s.db.Repositories(ctx).Members
	if query == "" {
		return repo.List()
	}
	return repo.Search(query)
}

func (s *MemberService) GetMember(ctx context.Context, id uint) (*entities.Member, error) {
	member, err := s.db.Repositories(ctx).Members.GetByID(id)
	if err != nil {
		return nil, notFoundOr(err, "member", id)
	}
	return member, nil
}

// MemberLoans returns the member and their loan history, newest first.
func (s *MemberService) MemberLoans(ctx context.Context, id uint) (*entities.Member, []Loan, error) {
	repos := s.db.Repositories(ctx)
	member, err := repos.Members.GetByID(id)
	if err != nil {
		return nil, nil, notFoundOr(err, "member", id)
	}

	history, err := repos.Borrowings.ListForMember(id)
	if err != nil {
		return nil, nil, err
	}
	return member, toLoans(history, s.clock.Now()), nil
}

func (s *MemberService) CreateMember(ctx context.Context, in MemberInput) (*entities.Member, error) {
	in.normalize()
	if err := in.Validate(); err != nil {
		return nil, err
	}

	now := s.clock.Now()
	member := &entities.Member{
		Name:      in.Name,
		Email:     in.Email,
		Phone:     in.Phone,
		Address:   in.Address,
		CreatedAt: now,
		UpdatedAt: now,
	}

	err := s.db.Transaction(ctx, func(uow *database.UnitOfWork) error {
		if err := ensureEmailFree(uow, in.Email, 0); err != nil {
			return err
		}
		return duplicateOr(uow.Members.Create(member), emailTaken(in.Email))
	})
	if err != nil {
		return nil, err
	}

	s.auditor.LogChange("member_create", "member", member.ID, fmt.Sprintf("Registered member %s", member.Name))
	return member, nil
}

func (s *MemberService) UpdateMember(ctx context.Context, id uint, in MemberInput) (*entities.Member, error) {
	in.normalize()
	if err := in.Validate(); err != nil {
		return nil, err
	}

	var member *entities.Member
	err := s.db.Transaction(ctx, func(uow *database.UnitOfWork) error {
		var err error
		member, err = uow.Members.GetByID(id)
		if err != nil {
			return notFoundOr(err, "member", id)
		}
		if err := ensureEmailFree(uow, in.Email, id); err != nil {
			return err
		}

		member.Name = in.Name
		member.Email = in.Email
		member.Phone = in.Phone
		member.Address = in.Address
		member.UpdatedAt = s.clock.Now()

		return duplicateOr(uow.Members.Save(member), emailTaken(in.Email))
	})
	if err != nil {
		return nil, err
	}

	s.auditor.LogChange("member_update", "member", member.ID, fmt.Sprintf("Updated member %s", member.Name))
	return member, nil
}

// DeleteMember removes a member and their returned loan history. Members who
// still hold books cannot be deleted.
func (s *MemberService) DeleteMember(ctx context.Context, id uint) (*entities.Member, error) {
	var member *entities.Member
	err := s.db.Transaction(ctx, func(uow *database.UnitOfWork) error {
		var err error
		member, err = uow.Members.GetByID(id)
		if err != nil {
			return notFoundOr(err, "member", id)
		}

		active, err := uow.Borrowings.CountActiveForMember(id)
		if err != nil {
			return err
		}
		if active > 0 {
			return NewPreconditionError("cannot delete %s: %d books have not been returned", member.Name, active)
		}

		if _, err := uow.Borrowings.DeleteForMember(id); err != nil {
			return err
		}
		return uow.Members.Delete(id)
	})
	if err != nil {
		if IsPrecondition(err) {
			s.auditor.LogFailure("member_delete", "member", id, err)
		}
		return nil, err
	}

	s.auditor.LogChange("member_delete", "member", member.ID, fmt.Sprintf("Deleted member %s", member.Name))
	return member, nil
}

func ensureEmailFree(uow *database.UnitOfWork, email string, selfID uint) error {
	existing, err := uow.Members.GetByEmail(email)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if existing.ID != selfID {
		return NewValidationError("%s", emailTaken(email))
	}
	return nil
}

func emailTaken(email string) string {
	return fmt.Sprintf("a member with email %s already exists", email)
}
