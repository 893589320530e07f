package service

// ItemStatus 单个技能节点或挑战的处理结果
type ItemStatus string

const (
	ItemApplied   ItemStatus = "applied"
	ItemCompleted ItemStatus = "completed"
	ItemSkipped   ItemStatus = "skipped"
	ItemFailed    ItemStatus = "failed"
	// ItemNotFound 引用的技能节点不存在，区别于依赖失败
	ItemNotFound  ItemStatus = "not_found"
)

const (
	ItemKindSkill     = "skill"
	ItemKindChallenge = "challenge"
	ItemKindBadge     = "badge"
)

// ItemResult 逐项记录聚合结果，部分失败不会中断其余条目
type ItemResult struct {
	Kind     string
	ID       uint
	Status   ItemStatus
	Progress int
	Target   int
	Err      error
}

func failedItem(kind string, id uint, err error) ItemResult {
	return ItemResult{Kind: kind, ID: id, Status: ItemFailed, Err: err}
}
