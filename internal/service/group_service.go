package service

import (
	"context"
	"errors"
	"log"
	"strings"

	"golang.org/x/sync/errgroup"

	"beefsteak/internal/model"
	"beefsteak/internal/repository"
	"beefsteak/internal/session"
)

// GroupView is a group with its roster and the lists assigned to its members.
type GroupView struct {
	Group     model.Group                `json:"group"`
	Members   []model.User               `json:"members"`
	TaskLists []repository.GroupTaskList `json:"group_tasks"`
}

// GroupService resolves group membership.
type GroupService struct {
	groups *repository.GroupRepository
	users  *repository.UserRepository
	lists  *repository.TaskListRepository
}

func NewGroupService(groups *repository.GroupRepository, users *repository.UserRepository, lists *repository.TaskListRepository) *GroupService {
	return &GroupService{groups: groups, users: users, lists: lists}
}

// JoinGroup moves the caller into groupID, which must exist.
func (s *GroupService) JoinGroup(ctx context.Context, who session.Identity, groupID uint) error {
	if !who.Authenticated {
		return ErrAuthenticationRequired
	}
	if groupID == 0 {
		return ErrInvalidGroup
	}
	exists, err := s.groups.Exists(ctx, groupID)
	if err != nil {
		return storageErr("check group", err)
	}
	if !exists {
		return ErrInvalidGroup
	}

	if err := s.users.SetGroup(ctx, who.UserID, groupID); err != nil {
		return storageErr("join group", err)
	}
	log.Printf("[info] user=%d joined group=%d", who.UserID, groupID)
	return nil
}

// CreateGroup stores a group owned by the caller. The owner is not enrolled as a member.
func (s *GroupService) CreateGroup(ctx context.Context, who session.Identity, name, description string) (*model.Group, error) {
	if !who.Authenticated {
		return nil, ErrAuthenticationRequired
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, invalid("group name is required")
	}

	group := model.Group{Name: name, Description: strings.TrimSpace(description), OwnerID: who.UserID}
	if err := s.groups.Create(ctx, &group); err != nil {
		return nil, storageErr("create group", err)
	}
	log.Printf("[info] group created id=%d owner=%d", group.ID, who.UserID)
	return &group, nil
}

// GroupView returns the caller's group page. Membership is read from storage, never from
// the cookie hint; a user without a group gets ErrNotInGroup.
func (s *GroupService) GroupView(ctx context.Context, who session.Identity) (*GroupView, error) {
	if !who.Authenticated {
		return nil, ErrAuthenticationRequired
	}
	user, err := s.users.FindByID(ctx, who.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrAuthenticationRequired
		}
		return nil, storageErr("find user", err)
	}
	if user.GroupID == nil {
		return nil, ErrNotInGroup
	}
	groupID := *user.GroupID

	var view GroupView
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		group, err := s.groups.FindByID(gctx, groupID)
		if err != nil {
			return storageErr("find group", err)
		}
		view.Group = *group
		return nil
	})
	g.Go(func() error {
		members, err := s.users.ListByGroup(gctx, groupID)
		if err != nil {
			return storageErr("list members", err)
		}
		view.Members = members
		return nil
	})
	g.Go(func() error {
		lists, err := s.lists.ListByGroup(gctx, groupID)
		if err != nil {
			return storageErr("list group lists", err)
		}
		view.TaskLists = lists
		return nil
	})
	if err := g.Wait(); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotInGroup
		}
		return nil, err
	}
	return &view, nil
}
