package scanner

import (
	"database/sql"

	model "github.com/jan-ninh/match3-backend/internal/models"
	"github.com/jan-ninh/match3-backend/internal/utils"
)

// ScanUserProfile scanne une ligne users vers un UserProfile
func ScanUserProfile(scanner interface {
	Scan(dest ...interface{}) error
}) (*model.UserProfile, error) {
	var user model.UserProfile

	err := scanner.Scan(
		&user.ID, &user.Email, &user.Username, &user.Avatar,
		&user.Powers.Bomb, &user.Powers.Laser, &user.Powers.ExtraShuffle,
		&user.TotalScore, &user.Hearts, &user.LastHeartRefillAt,
		&user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &user, nil
}

// ScanStageProgress scanne une ligne user_stage_progress
func ScanStageProgress(scanner interface {
	Scan(dest ...interface{}) error
}) (*model.StageProgress, error) {
	var p model.StageProgress
	var usedPower sql.NullString
	var lastCompletedAt sql.NullTime

	err := scanner.Scan(&p.StageKey, &p.Completed, &p.Points, &usedPower, &lastCompletedAt)
	if err != nil {
		return nil, err
	}

	if s := utils.NullStringToPointer(usedPower); s != nil {
		power := model.PowerKey(*s)
		p.UsedPower = &power
	}
	p.LastCompletedAt = utils.NullTimeToPointer(lastCompletedAt)

	return &p, nil
}
