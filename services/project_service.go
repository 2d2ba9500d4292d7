package services

import (
	"collab-chat/contract"
	"collab-chat/domain"
	"collab-chat/errors"
	"collab-chat/repositories"
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/samber/lo"
)

var validate = validator.New()

type CreateProjectRequest struct {
	Name string `json:"name" validate:"required,max=100"`
}

type AddUsersRequest struct {
	ProjectID string   `json:"projectId" validate:"required,len=24,hexadecimal"`
	Users     []string `json:"users" validate:"required,min=1,dive,required"`
}

// ProjectDetails is a project with its member accounts resolved.
type ProjectDetails struct {
	Project domain.Project
	Users   []domain.User
}

type IProjectService interface {
	CreateProject(ownerID string, req CreateProjectRequest) (domain.Project, error)
	ListProjects(userID string) ([]domain.Project, error)
	AddUsers(requesterID string, req AddUsersRequest) (domain.Project, error)
	GetProject(projectID string) (ProjectDetails, error)
	FindProject(ctx context.Context, id domain.ProjectID) (domain.Project, error)
}

var _ contract.ProjectResolver = (*ProjectService)(nil)

// ProjectService is also the membership resolver of the gateway handshake.
type ProjectService struct {
	log               *slog.Logger
	projectRepository repositories.IProjectRepository
	userRepository    repositories.IUserRepository
}

func NewProjectService(log *slog.Logger, projects repositories.IProjectRepository,
	users repositories.IUserRepository) *ProjectService {
	return &ProjectService{log: log, projectRepository: projects, userRepository: users}
}

// CreateProject makes the owner the sole member. Names are trimmed, lowercased and unique.
func (s *ProjectService) CreateProject(ownerID string, req CreateProjectRequest) (domain.Project, error) {
	req.Name = strings.ToLower(strings.TrimSpace(req.Name))
	if err := validate.Struct(req); err != nil {
		return domain.Project{}, fmt.Errorf("%w: %v", errors.ErrInvalidRequest, err)
	}
	project, err := s.projectRepository.CreateProject(req.Name, ownerID)
	if err != nil {
		return domain.Project{}, err
	}
	s.log.Info("Project created", "project", project.ID, "owner", ownerID)
	return project, nil
}

func (s *ProjectService) ListProjects(userID string) ([]domain.Project, error) {
	return s.projectRepository.ListProjectsByMember(userID)
}

// AddUsers requires the requester to be a member and every added user to exist.
func (s *ProjectService) AddUsers(requesterID string, req AddUsersRequest) (domain.Project, error) {
	if err := validate.Struct(req); err != nil {
		return domain.Project{}, fmt.Errorf("%w: %v", errors.ErrInvalidRequest, err)
	}
	userIDs := lo.Uniq(req.Users)
	for _, id := range userIDs {
		if _, err := s.userRepository.GetUserByID(id); err != nil {
			return domain.Project{}, fmt.Errorf("%w: unknown user %s", errors.ErrInvalidRequest, id)
		}
	}
	return s.projectRepository.AddMembers(domain.ProjectID(req.ProjectID), requesterID, userIDs)
}

// GetProject returns the project with its members, unknown members are skipped.
func (s *ProjectService) GetProject(projectID string) (ProjectDetails, error) {
	id := domain.ProjectID(projectID)
	if !id.Valid() {
		return ProjectDetails{}, fmt.Errorf("%w: malformed project id", errors.ErrInvalidRequest)
	}
	project, err := s.projectRepository.GetProject(id)
	if err != nil {
		return ProjectDetails{}, err
	}
	users := make([]domain.User, 0, len(project.Members))
	for _, memberID := range project.Members {
		user, err := s.userRepository.GetUserByID(memberID)
		if err != nil {
			s.log.Warn("Project member not found", "project", id, "user", memberID, "error", err)
			continue
		}
		users = append(users, user)
	}
	return ProjectDetails{Project: project, Users: users}, nil
}

func (s *ProjectService) FindProject(_ context.Context, id domain.ProjectID) (domain.Project, error) {
	return s.projectRepository.GetProject(id)
}
