//go:generate go run go.uber.org/mock/mockgen -source=project.go -destination=../mocks/mock_project_repository.go -package=mocks
package repositories

import (
	"collab-chat/domain"
	"collab-chat/errors"
	"encoding/json"
	goerrors "errors"
	"fmt"
	"sort"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/samber/lo"
)

const (
	projectPrefix     = "project:"
	projectNamePrefix = "project-name:"
)

type IProjectRepository interface {
	CreateProject(name, ownerID string) (domain.Project, error)
	GetProject(id domain.ProjectID) (domain.Project, error)
	ListProjectsByMember(userID string) ([]domain.Project, error)
	AddMembers(id domain.ProjectID, requesterID string, userIDs []string) (domain.Project, error)
}

type ProjectRepository struct {
	db *badger.DB
}

func NewProjectRepository(db *badger.DB) ProjectRepository {
	return ProjectRepository{db: db}
}

type diskProject struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Members   []string `json:"members"`
	CreatedAt int64    `json:"created_at"`
}

// CreateProject stores the project with its owner as sole member.
// Names are unique, enforced by the "project-name:{name}" key.
func (p ProjectRepository) CreateProject(name, ownerID string) (domain.Project, error) {
	project := domain.Project{
		ID:        domain.NewProjectID(),
		Name:      name,
		Members:   []string{ownerID},
		CreatedAt: time.Now().UTC().Truncate(time.Second),
	}
	err := p.db.Update(func(txn *badger.Txn) error {
		nameKey := []byte(projectNamePrefix + name)
		if _, err := txn.Get(nameKey); err == nil {
			return errors.ErrProjectExists
		} else if !goerrors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		if err := setProject(txn, project); err != nil {
			return err
		}
		return txn.Set(nameKey, []byte(project.ID))
	})
	if err != nil {
		return domain.Project{}, err
	}
	return project, nil
}

func (p ProjectRepository) GetProject(id domain.ProjectID) (domain.Project, error) {
	var project domain.Project
	err := p.db.View(func(txn *badger.Txn) error {
		var err error
		project, err = getProject(txn, id)
		return err
	})
	return project, err
}

// ListProjectsByMember scans projects and keeps those the user belongs to, sorted by name.
func (p ProjectRepository) ListProjectsByMember(userID string) ([]domain.Project, error) {
	return p.scan(func(project domain.Project) bool { return project.HasMember(userID) })
}

// ListProjects returns every stored project sorted by name.
func (p ProjectRepository) ListProjects() ([]domain.Project, error) {
	return p.scan(func(domain.Project) bool { return true })
}

func (p ProjectRepository) scan(keep func(domain.Project) bool) ([]domain.Project, error) {
	var projects []domain.Project
	err := p.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := []byte(projectPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				var d diskProject
				if err := json.Unmarshal(val, &d); err != nil {
					return err
				}
				if project := toProject(d); keep(project) {
					projects = append(projects, project)
				}
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	sort.Slice(projects, func(i, j int) bool { return projects[i].Name < projects[j].Name })
	return projects, err
}

// AddMembers adds users to the project with set semantics.
// The requester must already belong to the project.
func (p ProjectRepository) AddMembers(id domain.ProjectID, requesterID string, userIDs []string) (domain.Project, error) {
	var project domain.Project
	err := p.db.Update(func(txn *badger.Txn) error {
		var err error
		project, err = getProject(txn, id)
		if err != nil {
			return err
		}
		if !project.HasMember(requesterID) {
			return errors.ErrNotProjectMember
		}
		project.Members = lo.Uniq(append(project.Members, userIDs...))
		return setProject(txn, project)
	})
	if err != nil {
		return domain.Project{}, err
	}
	return project, nil
}

func getProject(txn *badger.Txn, id domain.ProjectID) (domain.Project, error) {
	item, err := txn.Get([]byte(projectPrefix + id.String()))
	if goerrors.Is(err, badger.ErrKeyNotFound) {
		return domain.Project{}, errors.ErrProjectNotFound
	}
	if err != nil {
		return domain.Project{}, err
	}
	var d diskProject
	if err = item.Value(func(val []byte) error {
		return json.Unmarshal(val, &d)
	}); err != nil {
		return domain.Project{}, fmt.Errorf("decode project %s: %w", id, err)
	}
	return toProject(d), nil
}

func setProject(txn *badger.Txn, project domain.Project) error {
	data, err := json.Marshal(fromProject(project))
	if err != nil {
		return fmt.Errorf("marshal failed: %w", err)
	}
	return txn.Set([]byte(projectPrefix+project.ID.String()), data)
}

func fromProject(project domain.Project) diskProject {
	return diskProject{
		ID:        project.ID.String(),
		Name:      project.Name,
		Members:   project.Members,
		CreatedAt: project.CreatedAt.Unix(),
	}
}

func toProject(d diskProject) domain.Project {
	return domain.Project{
		ID:        domain.ProjectID(d.ID),
		Name:      d.Name,
		Members:   d.Members,
		CreatedAt: time.Unix(d.CreatedAt, 0).UTC(),
	}
}
