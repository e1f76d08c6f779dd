package service

import (
	"fellowship/internal/models"
	"fellowship/internal/repository"
)

// DashboardStats are the headline counts on the admin dashboard
type DashboardStats struct {
	Sermons        int `json:"sermons"`
	Events         int `json:"events"`
	Members        int `json:"members"`
	PendingPrayers int `json:"pending_prayers"`
}

// DashboardService collects admin statistics
type DashboardService struct {
	sermons *repository.SermonRepository
	events  *repository.EventRepository
	users   *repository.UserRepository
	prayers *repository.PrayerRepository
}

// NewDashboardService creates a new dashboard service
func NewDashboardService(sermons *repository.SermonRepository, events *repository.EventRepository, users *repository.UserRepository, prayers *repository.PrayerRepository) *DashboardService {
	return &DashboardService{sermons: sermons, events: events, users: users, prayers: prayers}
}

// Stats returns the current counts
func (s *DashboardService) Stats() (*DashboardStats, error) {
	var stats DashboardStats
	var err error
	if stats.Sermons, err = s.sermons.CountSermons(); err != nil {
		return nil, err
	}
	if stats.Events, err = s.events.CountEvents(); err != nil {
		return nil, err
	}
	if stats.Members, err = s.users.CountUsers(); err != nil {
		return nil, err
	}
	if stats.PendingPrayers, err = s.prayers.CountByStatus(models.PrayerPending); err != nil {
		return nil, err
	}
	return &stats, nil
}
