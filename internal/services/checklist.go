package services

// 检查项状态
const (
	CheckPass = "pass"
	CheckFail = "fail"
)

// ChecklistItem 单个检查项
type ChecklistItem struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// ChecklistCategory 检查表分类
type ChecklistCategory struct {
	ID    string          `json:"id"`
	Title string          `json:"title"`
	Items []ChecklistItem `json:"items"`
}

// ChecklistSchema 笔记本质检固定检查表。分类和条目顺序即汇总/变更摘要的输出顺序。
// 条目 ID 不连续（无 77 号）是历史沿用的编号，不能改。
var ChecklistSchema = []ChecklistCategory{
	{
		ID:    "service_install",
		Title: "Service & Installation",
		Items: []ChecklistItem{
			{ID: "1", Label: "1) LAPTOP SERVICE"},
			{ID: "2", Label: "2) WINDOWS INSTALLATION"},
			{ID: "3", Label: "3) WINDOWS UPDATE CLOSE"},
			{ID: "4", Label: "4) TURN ON METERED CONNECTION"},
			{ID: "5", Label: "5) STORAGE HEALTH TEST"},
			{ID: "6", Label: "6) STORAGE SPEED TEST"},
			{ID: "7", Label: "7) DRIVERS (OG)"},
			{ID: "8", Label: "8) DRIVERS (DRIVER PACK)"},
			{ID: "9", Label: "9) GOOGLE CHROME INSTALLATION"},
			{ID: "10", Label: "10) TESTING VIDEO COPIING"},
			{ID: "11", Label: "11) BIOS UPDATE"},
		},
	},
	{
		ID:    "functionality",
		Title: "Functionality Checks",
		Items: []ChecklistItem{
			{ID: "12", Label: "12) BRIGHTNESS UP & DOWN CHECK"},
			{ID: "13", Label: "13) FUNCTION KEYS WORKING TEST"},
			{ID: "14", Label: "14) SLEEP & WAKE UP TEST"},
			{ID: "15", Label: "15) LAPTOP ALL SENSORS TEST"},
			{ID: "16", Label: "16) BLUETOOTH CONNECTIVITY TEST"},
			{ID: "17", Label: "17) WIFI RANGE TEST"},
			{ID: "18", Label: "18) INTERNAL SPEAKER TEST"},
			{ID: "19", Label: "19) INTERNAL SPEAKER VENT CHECK"},
			{ID: "20", Label: "20) AUDIO PORT TEST"},
			{ID: "21", Label: "21) WEBCAM TEST"},
			{ID: "22", Label: "22) MIC TEST"},
		},
	},
	{
		ID:    "input_display",
		Title: "Input & Display",
		Items: []ChecklistItem{
			{ID: "23", Label: "23) TOUCHPAD TEST"},
			{ID: "24", Label: "24) TOUCHPAD TEST (IN ADAPTER)"},
			{ID: "25", Label: "25) KEYBOARD TEST"},
			{ID: "26", Label: "26) KEYBOARD POINTER TEST"},
			{ID: "27", Label: "27) SCREEN TEST"},
			{ID: "28", Label: "28) LAPTOP LVDS CABLE TEST"},
			{ID: "29", Label: "29) TOUCHPAD BUTTON TEST"},
		},
	},
	{
		ID:    "ports_conn",
		Title: "Ports & Connectivity",
		Items: []ChecklistItem{
			{ID: "30", Label: "30) USB TYPE-A TEST"},
			{ID: "31", Label: "31) USB TYPE-C TEST"},
			{ID: "32", Label: "32) INTERNET PORT TEST"},
			{ID: "33", Label: "33) HDMI PORT TEST"},
			{ID: "34", Label: "34) VGA PORT TEST"},
			{ID: "35", Label: "35) MINI DISPLAY PORT TEST"},
			{ID: "36", Label: "36) OPTICAL DRIVE TEST"},
			{ID: "37", Label: "37) eMMC PORT TEST"},
			{ID: "38", Label: "38) SD CARD READER PORT TEST"},
			{ID: "39", Label: "39) CHARGING PORT TEST"},
		},
	},
	{
		ID:    "system_stress",
		Title: "System & Stress Tests",
		Items: []ChecklistItem{
			{ID: "40", Label: "40) POWER & ALL PHYSICAL TEST"},
			{ID: "41", Label: "41) BIOS SETUP CONFIGURE"},
			{ID: "42", Label: "42) TPM CHECK & UPGRADE"},
			{ID: "43", Label: "43) TOUCHSCREEN TEST"},
			{ID: "44", Label: "44) START UP TEST"},
			{ID: "45", Label: "45) BATTERY HEALTH TEST"},
			{ID: "46", Label: "46) RAM STRESS TEST"},
			{ID: "47", Label: "47) GPU STRESS TEST"},
			{ID: "48", Label: "48) BATTERY BACK-UP TEST"},
			{ID: "49", Label: "49) LAPTOP CHARGING UP TO 100%"},
		},
	},
	{
		ID:    "physical_fittings",
		Title: "Physical Fittings & Assembly",
		Items: []ChecklistItem{
			{ID: "50", Label: "50) SATA HDD/SSD ENCLOSURE CHECK"},
			{ID: "51", Label: "51) HINGES COVERS FITTINGS"},
			{ID: "52", Label: "52) SCREEN BEZEL FITTINGS (BACK SIDE)"},
			{ID: "53", Label: "53) HINGES COVERS FITTINGS"},
			{ID: "54", Label: "54) SCREEN BEZEL FITTINGS (BACK SIDE)"},
			{ID: "55", Label: "55) C & D PANEL FITTINGS (LEFT SIDE)"},
			{ID: "56", Label: "56) C & D PANEL FITTINGS (RIGHT SIDE)"},
			{ID: "57", Label: "57) C & D PANEL FITTINGS (RIGHT SIDE)"},
			{ID: "58", Label: "58) BACK COVERS FITTINGS"},
		},
	},
	{
		ID:    "cosmetic_cleaning",
		Title: "Cosmetic & Cleaning",
		Items: []ChecklistItem{
			{ID: "59", Label: "59) LAMINATION REQ CHECKS (A-PANEL)"},
			{ID: "60", Label: "60) LAMINATION REQ CHECKS (TOUCHPAD)"},
			{ID: "61", Label: "61) LAMINATION ACC CHECKS (A-PANEL)"},
			{ID: "62", Label: "62) LAMINATION ACC CHECKS (TOUCHPAD)"},
			{ID: "63", Label: "63) ALL PORTS CLEANING"},
			{ID: "64", Label: "64) LAPTOP CLEANING"},
			{ID: "65", Label: "65) SCREW CHANGE/REFURBISH"},
			{ID: "66", Label: "66) ID ALLOCATION & PASTING"},
			{ID: "67", Label: "67) WARRANTY STICKERS ON EXTERNAL BATTERY"},
			{ID: "68", Label: "68) CATALOGING REMINDER TO CATALOGER"},
			{ID: "69", Label: "69) LAPTOP WARP VENT CUTTING"},
		},
	},
	{
		ID:    "packaging_final",
		Title: "Packaging & Final QC",
		Items: []ChecklistItem{
			{ID: "70", Label: "70) ADAPTER ID PASTING"},
			{ID: "71", Label: "71) CHARGER CLEANING WITH POWER CORD"},
			{ID: "72", Label: "72) CHECK SYSTEM DATE & TIME"},
			{ID: "73", Label: "73) WINDOWS ACTIVATION"},
			{ID: "74", Label: "74) MS OFFICE INSTALLATION"},
			{ID: "75", Label: "75) EXPENSE SHEET RECONCILIATION"},
			{ID: "76", Label: "76) QC/REPORT CREATION"},
			{ID: "78", Label: "78) ADAPTER PACKAGING"},
			{ID: "79", Label: "79) LAPTOP PACKAGING"},
			{ID: "80", Label: "80) C & D PANEL FITTINGS (RIGHT SIDE)"},
		},
	},
}

// ChecklistItems 按检查表顺序展开全部条目
func ChecklistItems() []ChecklistItem {
	var items []ChecklistItem
	for _, cat := range ChecklistSchema {
		items = append(items, cat.Items...)
	}
	return items
}

// ChecklistTotal 检查表条目总数
func ChecklistTotal() int {
	n := 0
	for _, cat := range ChecklistSchema {
		n += len(cat.Items)
	}
	return n
}

// ValidChecklistItem 条目 ID 是否属于检查表
func ValidChecklistItem(id string) bool {
	for _, cat := range ChecklistSchema {
		for _, item := range cat.Items {
			if item.ID == id {
				return true
			}
		}
	}
	return false
}
