package rdb

import (
	"context"
	"errors"
	"fmt"

	"workpulse/pkg/store/rdb/model"

	"gorm.io/gorm"
)

// MemberRepository reads project memberships
type MemberRepository struct {
	ds *Datastore
}

// NewMemberRepository creates a new membership repository
func NewMemberRepository(ds *Datastore) *MemberRepository {
	return &MemberRepository{ds: ds}
}

// ResolveWorkRole returns the user's role on the project, preferring active and
// most recently assigned memberships. Empty when the user is not a member.
func (r *MemberRepository) ResolveWorkRole(ctx context.Context, projectID, userID string) (string, error) {
	var member model.ProjectMember
	err := r.ds.DB(ctx).
		Where("project_id = ? AND user_id = ?", projectID, userID).
		Order("is_active DESC").
		Order("assigned_from DESC").
		First(&member).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil
		}
		return "", fmt.Errorf("failed to get project member: %w", err)
	}
	return member.WorkRole, nil
}
