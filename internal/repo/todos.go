package repo

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/Skotchmaster/todo_list/internal/models"
)

func (r *GormRepo) CreateToDo(ctx context.Context, t *models.ToDo) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Owner").Create(t).Error; err != nil {
			return fmt.Errorf("create todo: %w", err)
		}
		return nil
	})
}

// GetToDo looks the to-do up by id inside the owner's collection.
func (r *GormRepo) GetToDo(ctx context.Context, userID, id uint) (*models.ToDo, error) {
	var todo models.ToDo
	if err := r.DB.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).First(&todo).Error; err != nil {
		return nil, err
	}
	return &todo, nil
}

func (r *GormRepo) ListToDos(ctx context.Context, offset, limit int) ([]models.ToDo, error) {
	todos := []models.ToDo{}
	if err := r.DB.WithContext(ctx).Order("id ASC").Offset(offset).Limit(limit).Find(&todos).Error; err != nil {
		return nil, fmt.Errorf("list todos: %w", err)
	}
	return todos, nil
}

func (r *GormRepo) ListUserToDos(ctx context.Context, userID uint, offset, limit int) ([]models.ToDo, error) {
	todos := []models.ToDo{}
	if err := r.DB.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("id ASC").
		Offset(offset).
		Limit(limit).
		Find(&todos).Error; err != nil {
		return nil, fmt.Errorf("list user todos: %w", err)
	}
	return todos, nil
}

// GetUserToDosByIDs loads the given ids of one owner, keeping the order of ids.
func (r *GormRepo) GetUserToDosByIDs(ctx context.Context, userID uint, ids []uint) ([]models.ToDo, error) {
	if len(ids) == 0 {
		return []models.ToDo{}, nil
	}
	var found []models.ToDo
	if err := r.DB.WithContext(ctx).Where("user_id = ? AND id IN ?", userID, ids).Find(&found).Error; err != nil {
		return nil, fmt.Errorf("load todos: %w", err)
	}
	byID := make(map[uint]models.ToDo, len(found))
	for _, t := range found {
		byID[t.ID] = t
	}
	out := make([]models.ToDo, 0, len(found))
	for _, id := range ids {
		if t, ok := byID[id]; ok {
			out = append(out, t)
		}
	}
	return out, nil
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

// SearchUserToDos matches descriptions case-insensitively. It backs search when no index is available.
func (r *GormRepo) SearchUserToDos(ctx context.Context, userID uint, q string, offset, limit int) (int64, []models.ToDo, error) {
	pattern := "%" + strings.ToLower(escapeLike(q)) + "%"
	base := r.DB.WithContext(ctx).Model(&models.ToDo{}).
		Where("user_id = ? AND LOWER(description) LIKE ? ESCAPE '\\'", userID, pattern).
		Session(&gorm.Session{})

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return 0, nil, fmt.Errorf("count todos: %w", err)
	}

	todos := []models.ToDo{}
	if err := base.Order("id ASC").Offset(offset).Limit(limit).Find(&todos).Error; err != nil {
		return 0, nil, fmt.Errorf("search todos: %w", err)
	}
	return total, todos, nil
}

func (r *GormRepo) UpdateToDo(ctx context.Context, t *models.ToDo) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Owner").Save(t).Error; err != nil {
			return fmt.Errorf("update todo: %w", err)
		}
		return nil
	})
}

func (r *GormRepo) DeleteToDo(ctx context.Context, userID, id uint) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("user_id = ?", userID).Delete(&models.ToDo{}, id)
		if res.Error != nil {
			return fmt.Errorf("delete todo: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}
