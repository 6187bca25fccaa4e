package model

// SectionReport 單一分區的儀表板彙總。
// Sold / Cancelled 從 booking 記錄彙總，Remaining / Locked 讀自 inventory 計數，
// 兩邊允許在一個回收週期內暫時對不上。
type SectionReport struct {
	SectionID string `json:"section_id"`
	Bowl      string `json:"bowl"`
	Sold      int    `json:"sold"`
	Remaining int    `json:"remaining"`
	Locked    int    `json:"locked"`
	Cancelled int    `json:"cancelled"`
}

// DashboardSnapshot 報表層輪詢用的快照，非交易性讀取
type DashboardSnapshot struct {
	PerSection       []SectionReport `json:"per_section"`
	TotalSeats       int             `json:"total_seats"`
	TotalUsedTickets int             `json:"total_used_tickets"`
}

// UsedSeatsReport 單一分區已入場座位數
type UsedSeatsReport struct {
	SectionID string `json:"section_id"`
	Bowl      string `json:"bowl"`
	UsedSeats int    `json:"used_seats"`
}
