// Package entity holds the view models shared by services and templates.
package entity

import (
	"time"

	"github.com/mhsanaei/blogpanel/util/common"
)

// Counts is the number of stored rows per entity.
type Counts struct {
	Users     int64 `json:"users"`
	Posts     int64 `json:"posts"`
	Comments  int64 `json:"comments"`
	Files     int64 `json:"files"`
	AuditLogs int64 `json:"auditLogs"`
}

type Usage struct {
	Current uint64 `json:"current"`
	Total   uint64 `json:"total"`
}

// Percent is Current/Total in percent, 0 when Total is unknown.
func (u Usage) Percent() float64 {
	if u.Total == 0 {
		return 0
	}
	return float64(u.Current) * 100 / float64(u.Total)
}

func (u Usage) String() string {
	return common.FormatBytes(int64(u.Current)) + " / " + common.FormatBytes(int64(u.Total))
}

// HostStatus is a snapshot of the machine running the panel.
type HostStatus struct {
	Hostname string    `json:"hostname"`
	Platform string    `json:"platform"`
	Uptime   uint64    `json:"uptime"`
	Cpu      float64   `json:"cpu"`
	CpuCores int       `json:"cpuCores"`
	Mem      Usage     `json:"mem"`
	Disk     Usage     `json:"disk"`
	Loads    []float64 `json:"loads"`
}

// DashboardStats is what the admin dashboard renders.
type DashboardStats struct {
	Counts      Counts        `json:"counts"`
	Host        HostStatus    `json:"host"`
	Requests    int64         `json:"requests"`
	AppUptime   time.Duration `json:"appUptime"`
	RefreshedAt time.Time     `json:"refreshedAt"`
}
