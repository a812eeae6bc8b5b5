package repositories

import (
	"context"

	"github.com/uptrace/bun"

	"github.com/mkoziy/sparkify/loader/internal/models"
)

// UserConflict returns the conflict declaration for users. With latest set,
// a newer row replaces the stored name, gender and level.
func UserConflict(latest bool) Conflict {
	if latest {
		return Overwrite([]string{"user_id"}, "first_name", "last_name", "gender", "level")
	}
	return Ignore("user_id")
}

// InsertUsers writes users under the given conflict declaration.
func InsertUsers(ctx context.Context, db bun.IDB, users []*models.User, conflict Conflict) (int64, error) {
	if conflict.Policy == DoUpdate {
		// PostgreSQL refuses to update the same row twice in one statement.
		users = lastPerUser(users)
	}
	return insert(ctx, db, users, &conflict)
}

// GetUser fetches a user by id.
func GetUser(ctx context.Context, db bun.IDB, userID int64) (*models.User, error) {
	user := new(models.User)
	err := db.NewSelect().Model(user).Where("u.user_id = ?", userID).Scan(ctx)
	return user, err
}

func lastPerUser(users []*models.User) []*models.User {
	pos := make(map[int64]int, len(users))
	out := make([]*models.User, 0, len(users))
	for _, u := range users {
		if i, ok := pos[u.UserID]; ok {
			out[i] = u
			continue
		}
		pos[u.UserID] = len(out)
		out = append(out, u)
	}
	return out
}
