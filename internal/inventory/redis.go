package inventory

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"seat-reservation-engine/internal/model"
	apperrors "seat-reservation-engine/pkg/app_errors"

	"github.com/redis/go-redis/v9"
)

// RedisStore 以 Redis hash 保存每分區計數，
// 變更一律走 Lua 腳本，靠 Redis 單執行緒保證同分區線性化。
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) Store {
	return &RedisStore{
		client: client,
	}
}

// 分區計數 key
func (s *RedisStore) getSectionKey(sectionID string) string {
	return fmt.Sprintf("section:%s:availability", sectionID)
}

func (s *RedisStore) WarmUp(ctx context.Context, sectionID string, capacity, sold, locked int) error {
	available := capacity - sold - locked
	if available < 0 {
		return apperrors.ErrInvalidInput
	}
	key := s.getSectionKey(sectionID)
	return s.client.HSet(ctx, key, map[string]interface{}{
		"available": available,
		"locked":    locked,
		"sold":      sold,
	}).Err()
}

/*
鎖定座位 (使用Lua腳本確保原子性)
1. 檢查分區計數是否已預熱
2. 檢查 available 是否足夠
3. 執行 available -> locked 搬移
*/
func (s *RedisStore) TryLock(ctx context.Context, sectionID string, seatCount int) (int, error) {
	key := s.getSectionKey(sectionID)

	script := `
		-- 1. 取得參數
		local section_key = KEYS[1]
		local request_qty = tonumber(ARGV[1])

		-- 2. 取得分區計數
		local available = redis.call('HGET', section_key, 'available')

		-- 3. 檢查數據是否存在
		if not available then
			return {-2, 0} -- 錯誤：分區計數未預熱
		end

		-- 4. 檢查剩餘座位
		if tonumber(available) < request_qty then
			return {-1, tonumber(available)} -- 錯誤：座位不足
		end

		-- 5. 執行搬移 available -> locked
		redis.call('HINCRBY', section_key, 'available', -request_qty)
		redis.call('HINCRBY', section_key, 'locked', request_qty)

		return {1, tonumber(available) - request_qty} -- 鎖定成功
	`

	result, err := s.client.Eval(ctx, script, []string{key}, seatCount).Result()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", apperrors.ErrStoreUnavailable, err)
	}

	resSlice := result.([]interface{})
	code := resSlice[0].(int64) // Redis 數字通常回傳 int64
	remaining := int(resSlice[1].(int64))

	switch code {
	case 1:
		return remaining, nil
	case -1:
		return remaining, apperrors.ErrInsufficientSeats
	case -2:
		return 0, apperrors.ErrSectionNotFound
	default:
		return 0, errors.New("unexpected result")
	}
}

func (s *RedisStore) Release(ctx context.Context, sectionID string, seatCount int) error {
	return s.moveLocked(ctx, sectionID, seatCount, "available")
}

func (s *RedisStore) CommitSold(ctx context.Context, sectionID string, seatCount int) error {
	return s.moveLocked(ctx, sectionID, seatCount, "sold")
}

// moveLocked 從 locked 搬 seatCount 到目標欄位，locked 不足時拒絕，
// 不足表示計數已偏移，留給 Reconcile 修復而不是讓計數變負數。
func (s *RedisStore) moveLocked(ctx context.Context, sectionID string, seatCount int, target string) error {
	key := s.getSectionKey(sectionID)

	script := `
		-- 1. 取得參數
		local section_key = KEYS[1]
		local qty = tonumber(ARGV[1])
		local target = ARGV[2]

		-- 2. 取得 locked 計數
		local locked = redis.call('HGET', section_key, 'locked')
		if not locked then
			return -2 -- 錯誤：分區計數未預熱
		end

		-- 3. locked 不足不能搬，避免計數變負
		if tonumber(locked) < qty then
			return -1
		end

		-- 4. 執行搬移 locked -> target
		redis.call('HINCRBY', section_key, 'locked', -qty)
		redis.call('HINCRBY', section_key, target, qty)

		return 1
	`

	result, err := s.client.Eval(ctx, script, []string{key}, seatCount, target).Result()
	if err != nil {
		return fmt.Errorf("%w: %v", apperrors.ErrStoreUnavailable, err)
	}

	switch result.(int64) {
	case 1:
		return nil
	case -1:
		return apperrors.ErrInvalidInput
	case -2:
		return apperrors.ErrSectionNotFound
	default:
		return errors.New("unexpected result")
	}
}

/*
容量修正 (使用Lua腳本確保原子性)
只動 available 欄位，locked / sold 保持不動，
並發中的 TryLock / Release 搬移不會被覆寫
*/
func (s *RedisStore) AdjustCapacity(ctx context.Context, sectionID string, delta int) (model.SectionAvailability, error) {
	key := s.getSectionKey(sectionID)

	script := `
		-- 1. 取得參數
		local section_key = KEYS[1]
		local delta = tonumber(ARGV[1])

		-- 2. 取得分區計數
		local available = redis.call('HGET', section_key, 'available')
		if not available then
			return {-2, 0, 0, 0} -- 錯誤：分區計數未預熱
		end

		-- 3. 調整後 available 不能為負（容量下限 = sold + locked）
		if tonumber(available) + delta < 0 then
			return {-1, tonumber(available), 0, 0}
		end

		-- 4. 執行調整
		local new_available = redis.call('HINCRBY', section_key, 'available', delta)
		local locked = tonumber(redis.call('HGET', section_key, 'locked'))
		local sold = tonumber(redis.call('HGET', section_key, 'sold'))

		return {1, new_available, locked, sold}
	`

	result, err := s.client.Eval(ctx, script, []string{key}, delta).Result()
	if err != nil {
		return model.SectionAvailability{}, fmt.Errorf("%w: %v", apperrors.ErrStoreUnavailable, err)
	}

	resSlice := result.([]interface{})
	code := resSlice[0].(int64)

	switch code {
	case 1:
		return model.SectionAvailability{
			SectionID: sectionID,
			Available: int(resSlice[1].(int64)),
			Locked:    int(resSlice[2].(int64)),
			Sold:      int(resSlice[3].(int64)),
		}, nil
	case -1:
		return model.SectionAvailability{}, apperrors.ErrInvalidInput
	case -2:
		return model.SectionAvailability{}, apperrors.ErrSectionNotFound
	default:
		return model.SectionAvailability{}, errors.New("unexpected result")
	}
}

func (s *RedisStore) Availability(ctx context.Context, sectionID string) (model.SectionAvailability, error) {
	key := s.getSectionKey(sectionID)
	result, err := s.client.HGetAll(ctx, key).Result()
	if err != nil {
		return model.SectionAvailability{}, fmt.Errorf("%w: %v", apperrors.ErrStoreUnavailable, err)
	}

	// 檢查 key 是否存在
	if len(result) == 0 {
		return model.SectionAvailability{}, apperrors.ErrSectionNotFound
	}

	available, err := strconv.Atoi(result["available"])
	if err != nil {
		return model.SectionAvailability{}, fmt.Errorf("invalid available: %v", err)
	}

	locked, err := strconv.Atoi(result["locked"])
	if err != nil {
		return model.SectionAvailability{}, fmt.Errorf("invalid locked: %v", err)
	}

	sold, err := strconv.Atoi(result["sold"])
	if err != nil {
		return model.SectionAvailability{}, fmt.Errorf("invalid sold: %v", err)
	}

	return model.SectionAvailability{
		SectionID: sectionID,
		Available: available,
		Locked:    locked,
		Sold:      sold,
	}, nil
}

func (s *RedisStore) Snapshot(ctx context.Context, sectionIDs []string) (map[string]model.SectionAvailability, error) {
	snapshot := make(map[string]model.SectionAvailability, len(sectionIDs))
	for _, sectionID := range sectionIDs {
		availability, err := s.Availability(ctx, sectionID)
		if err != nil {
			if errors.Is(err, apperrors.ErrSectionNotFound) {
				// 未預熱的分區回報零值，報表容忍暫時缺漏
				snapshot[sectionID] = model.SectionAvailability{SectionID: sectionID}
				continue
			}
			return nil, err
		}
		snapshot[sectionID] = availability
	}
	return snapshot, nil
}
