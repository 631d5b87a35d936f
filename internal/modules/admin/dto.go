package admin

type StatisticsResponse struct {
	TotalUsers      int64 `json:"total_users"`
	TotalFiles      int64 `json:"total_files"`
	EditedFiles     int64 `json:"edited_files"`
	ConnectedAdmins int   `json:"connected_admins"`
}
