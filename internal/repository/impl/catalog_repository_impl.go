package impl

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/aarondl/sqlboiler/v4/queries"
	"github.com/aarondl/sqlboiler/v4/types"
	"github.com/lib/pq"

	"pikapi/internal/modules/battle/engine"
	"pikapi/internal/pkg/metrics"
	"pikapi/internal/repository/interfaces"
)

// creatureRow catalog.creatures 联表属性后的一行
type creatureRow struct {
	CreatureID int              `boil:"creature_id"`
	Name       string           `boil:"name"`
	Cost       int              `boil:"cost"`
	HP         int              `boil:"hp"`
	Atk        int              `boil:"atk"`
	Def        int              `boil:"def"`
	SpAtk      int              `boil:"sp_atk"`
	SpDef      int              `boil:"sp_def"`
	Speed      int              `boil:"speed"`
	TypeIDs    types.Int64Array `boil:"type_ids"`
}

func (r *creatureRow) toInfo() engine.CreatureInfo {
	typeIDs := make([]engine.TypeID, 0, len(r.TypeIDs))
	for _, id := range r.TypeIDs {
		typeIDs = append(typeIDs, engine.TypeID(id))
	}
	return engine.CreatureInfo{
		ID:    r.CreatureID,
		Name:  r.Name,
		Types: typeIDs,
		Cost:  r.Cost,
		Base: engine.StatBlock{
			HP:        r.HP,
			Attack:    r.Atk,
			Defense:   r.Def,
			SpAttack:  r.SpAtk,
			SpDefense: r.SpDef,
			Speed:     r.Speed,
		},
	}
}

type moveRow struct {
	MoveID   int    `boil:"move_id"`
	MoveName string `boil:"move_name"`
	TypeID   int    `boil:"type_id"`
	Power    int    `boil:"power"`
	Accuracy int    `boil:"accuracy"`
	Category string `boil:"category"`
	Priority int    `boil:"priority"`
}

func (r *moveRow) toDefinition() engine.MoveDefinition {
	category := engine.MoveCategory(r.Category)
	if category != engine.CategorySpecial {
		category = engine.CategoryPhysical
	}
	return engine.MoveDefinition{
		ID:       r.MoveID,
		Name:     r.MoveName,
		Power:    r.Power,
		Accuracy: r.Accuracy,
		Type:     engine.TypeID(r.TypeID),
		Category: category,
		Priority: r.Priority,
	}
}

type effectivenessRow struct {
	AttackingTypeID int           `boil:"attacking_type_id"`
	DefendingTypeID int           `boil:"defending_type_id"`
	Effectiveness   types.Decimal `boil:"effectiveness"`
}

type idRow struct {
	ID int `boil:"id"`
}

const creatureSelect = `
	SELECT
		c.creature_id, c.name, c.cost,
		c.hp, c.atk, c.def, c.sp_atk, c.sp_def, c.speed,
		COALESCE(array_agg(ct.type_id ORDER BY ct.slot) FILTER (WHERE ct.type_id IS NOT NULL), '{}') AS type_ids
	FROM catalog.creatures c
	LEFT JOIN catalog.creature_types ct ON ct.creature_id = c.creature_id
`

const moveSelect = `
	SELECT
		move_id, move_name, type_id,
		COALESCE(power, 0)            AS power,
		COALESCE(accuracy, 0)         AS accuracy,
		COALESCE(category, 'physical') AS category,
		COALESCE(priority, 0)         AS priority
	FROM catalog.moves
`

type catalogRepositoryImpl struct {
	db      *sql.DB
	metrics *metrics.ResourceMetrics
}

// NewCatalogRepository 创建 Postgres 图鉴仓储，查询耗时记入默认指标
func NewCatalogRepository(db *sql.DB) interfaces.CatalogRepository {
	return NewCatalogRepositoryWithMetrics(db, metrics.DefaultResourceMetrics)
}

// NewCatalogRepositoryWithMetrics m 为 nil 时不记录指标
func NewCatalogRepositoryWithMetrics(db *sql.DB, m *metrics.ResourceMetrics) interfaces.CatalogRepository {
	return &catalogRepositoryImpl{db: db, metrics: m}
}

// bind 执行查询并按 query 名记录耗时和结果
func (r *catalogRepositoryImpl) bind(ctx context.Context, query string, dest any, sqlText string, args ...any) error {
	start := time.Now()
	err := queries.Raw(sqlText, args...).Bind(ctx, r.db, dest)
	r.metrics.RecordCatalogQuery(query, err, time.Since(start))
	return err
}

// GetCreature 查询宝可梦及其属性（按 slot 排序）
func (r *catalogRepositoryImpl) GetCreature(ctx context.Context, id int) (*engine.CreatureInfo, error) {
	var row creatureRow
	err := r.bind(ctx, "get_creature", &row, creatureSelect+` WHERE c.creature_id = $1 GROUP BY c.creature_id`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %d", interfaces.ErrCreatureNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("查询宝可梦失败: %w", err)
	}
	info := row.toInfo()
	return &info, nil
}

// GetLegalMoveIDs 查询宝可梦可学会的招式
func (r *catalogRepositoryImpl) GetLegalMoveIDs(ctx context.Context, creatureID int) ([]int, error) {
	var rows []*idRow
	err := r.bind(ctx, "legal_moves", &rows, `
		SELECT move_id AS id
		FROM catalog.creature_moves
		WHERE creature_id = $1
		ORDER BY move_id
	`, creatureID)
	if err != nil {
		return nil, fmt.Errorf("查询可学招式失败: %w", err)
	}
	return collectIDs(rows), nil
}

// GetMoveDefinition 查询单个招式
func (r *catalogRepositoryImpl) GetMoveDefinition(ctx context.Context, moveID int) (*engine.MoveDefinition, error) {
	var row moveRow
	err := r.bind(ctx, "get_move", &row, moveSelect+` WHERE move_id = $1`, moveID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %d", interfaces.ErrMoveNotFound, moveID)
	}
	if err != nil {
		return nil, fmt.Errorf("查询招式失败: %w", err)
	}
	def := row.toDefinition()
	return &def, nil
}

// GetMoveDefinitions 批量查询招式
func (r *catalogRepositoryImpl) GetMoveDefinitions(ctx context.Context, moveIDs []int) (map[int]engine.MoveDefinition, error) {
	out := make(map[int]engine.MoveDefinition, len(moveIDs))
	if len(moveIDs) == 0 {
		return out, nil
	}

	ids := make([]int64, len(moveIDs))
	for i, id := range moveIDs {
		ids[i] = int64(id)
	}

	var rows []*moveRow
	if err := r.bind(ctx, "get_moves", &rows, moveSelect+` WHERE move_id = ANY($1)`, pq.Array(ids)); err != nil {
		return nil, fmt.Errorf("批量查询招式失败: %w", err)
	}
	for _, row := range rows {
		out[row.MoveID] = row.toDefinition()
	}
	return out, nil
}

// GetTypeEffectiveness 查询单个克制组合，缺失视为 1.0
func (r *catalogRepositoryImpl) GetTypeEffectiveness(ctx context.Context, attacking, defending engine.TypeID) (float64, error) {
	var row effectivenessRow
	err := r.bind(ctx, "type_effectiveness", &row, `
		SELECT attacking_type_id, defending_type_id, effectiveness
		FROM catalog.type_effectiveness
		WHERE attacking_type_id = $1 AND defending_type_id = $2
	`, int(attacking), int(defending))
	if errors.Is(err, sql.ErrNoRows) {
		return 1.0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("查询属性克制失败: %w", err)
	}
	return decimalToFloat(row.Effectiveness), nil
}

// GetTypeChart 读取完整克制表
func (r *catalogRepositoryImpl) GetTypeChart(ctx context.Context) (engine.TypeChart, error) {
	var rows []*effectivenessRow
	err := r.bind(ctx, "type_chart", &rows, `
		SELECT attacking_type_id, defending_type_id, effectiveness
		FROM catalog.type_effectiveness
	`)
	if err != nil {
		return nil, fmt.Errorf("查询属性克制表失败: %w", err)
	}

	chart := make(engine.TypeChart, len(rows))
	for _, row := range rows {
		chart[engine.TypePair{
			Attacking: engine.TypeID(row.AttackingTypeID),
			Defending: engine.TypeID(row.DefendingTypeID),
		}] = decimalToFloat(row.Effectiveness)
	}
	return chart, nil
}

// ListCreaturesByMaxCost 费用不超过 maxCost 的宝可梦
func (r *catalogRepositoryImpl) ListCreaturesByMaxCost(ctx context.Context, maxCost int) ([]engine.CreatureInfo, error) {
	var rows []*creatureRow
	err := r.bind(ctx, "creatures_by_cost", &rows, creatureSelect+`
		WHERE c.cost <= $1
		GROUP BY c.creature_id
		ORDER BY c.creature_id
	`, maxCost)
	if err != nil {
		return nil, fmt.Errorf("按费用查询宝可梦失败: %w", err)
	}

	out := make([]engine.CreatureInfo, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toInfo())
	}
	return out, nil
}

// ListCreatureIDs 全部宝可梦 ID
func (r *catalogRepositoryImpl) ListCreatureIDs(ctx context.Context) ([]int, error) {
	var rows []*idRow
	err := r.bind(ctx, "creature_ids", &rows, `SELECT creature_id AS id FROM catalog.creatures ORDER BY creature_id`)
	if err != nil {
		return nil, fmt.Errorf("查询宝可梦列表失败: %w", err)
	}
	return collectIDs(rows), nil
}

func collectIDs(rows []*idRow) []int {
	ids := make([]int, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.ID)
	}
	return ids
}

// decimalToFloat numeric(3,2) → float64，空值按中性 1.0 处理
func decimalToFloat(d types.Decimal) float64 {
	if d.Big == nil || !d.IsFinite() {
		return 1.0
	}
	f, _ := d.Float64()
	return f
}
