package store

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"rotor/airfoil"
	"rotor/calculator"
)

var ErrNotFound = errors.New("store: blade not found")

// BladeRecord 已设计叶片，翼型曲线以 json 保存
type BladeRecord struct {
	ID           string          `json:"id" gorm:"primaryKey"`
	Name         string          `json:"name"`
	Polar        airfoil.Table   `json:"polar" gorm:"type:text;serializer:json"`
	BladeCount   int             `json:"blade_count"`
	Radius       float64         `json:"radius"`
	Torque       float64         `json:"torque"`
	WindSpeed    float64         `json:"wind_speed"`
	RotorSpeed   float64         `json:"rotor_speed"`
	TargetTorque float64         `json:"target_torque"`
	Passes       int             `json:"passes"`
	Elements     []ElementRecord `json:"elements" gorm:"foreignKey:BladeID;constraint:OnDelete:CASCADE"`
	CreatedAt    time.Time       `json:"created_at"`
}

// ElementRecord 叶素的冻结几何
type ElementRecord struct {
	ID       uint    `json:"-" gorm:"primaryKey"`
	BladeID  string  `json:"-" gorm:"index"`
	Position int     `json:"position"`
	R1       float64 `json:"r1"`
	R2       float64 `json:"r2"`
	Chord    float64 `json:"chord"`
	Twist    float64 `json:"twist"`
	Axial    float64 `json:"axial"`
	Angular  float64 `json:"angular"`
}

// Service 叶片持久化
type Service struct {
	db *gorm.DB
}

func NewService(path string) (*Service, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("打开数据库失败 %s: %w", path, err)
	}
	if err = db.AutoMigrate(&BladeRecord{}, &ElementRecord{}); err != nil {
		return nil, fmt.Errorf("数据库迁移失败: %w", err)
	}
	return &Service{db: db}, nil
}

func (s *Service) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Save 保存已设计的叶片，返回记录 id
func (s *Service) Save(name string, b *calculator.Blade) (string, error) {
	if b == nil || len(b.Elements) == 0 {
		return "", fmt.Errorf("%w: blade has not been designed", calculator.ErrUnsolved)
	}
	rec := BladeRecord{
		ID:           uuid.New().String(),
		Name:         name,
		Polar:        b.Polar.Table(),
		BladeCount:   b.BladeCount,
		Radius:       b.Radius,
		Torque:       b.Torque,
		WindSpeed:    b.WindSpeed,
		RotorSpeed:   b.RotorSpeed,
		TargetTorque: b.TargetTorque,
		Passes:       b.Passes(),
	}
	for i, g := range b.Geometry() {
		rec.Elements = append(rec.Elements, ElementRecord{
			Position: i,
			R1:       g.R1,
			R2:       g.R2,
			Chord:    g.Chord,
			Twist:    g.Twist,
			Axial:    g.Axial,
			Angular:  g.Angular,
		})
	}
	if err := s.db.Create(&rec).Error; err != nil {
		return "", err
	}
	log.WithFields(log.Fields{
		"id":       rec.ID,
		"name":     name,
		"radius":   rec.Radius,
		"elements": len(rec.Elements),
	}).Info("叶片已保存")
	return rec.ID, nil
}

// Record 按 id 读取记录，叶素按位置排序
func (s *Service) Record(id string) (BladeRecord, error) {
	var rec BladeRecord
	err := s.db.Preload("Elements").First(&rec, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return rec, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return rec, err
	}
	sort.Slice(rec.Elements, func(i, j int) bool { return rec.Elements[i].Position < rec.Elements[j].Position })
	return rec, nil
}

// Load 读取记录并恢复为可仿真的叶片
func (s *Service) Load(id string, cfg calculator.Config) (*calculator.Blade, BladeRecord, error) {
	rec, err := s.Record(id)
	if err != nil {
		return nil, rec, err
	}
	polar, err := airfoil.NewPolar(rec.Polar)
	if err != nil {
		return nil, rec, err
	}
	geometry := make([]calculator.Geometry, len(rec.Elements))
	for i, e := range rec.Elements {
		geometry[i] = calculator.Geometry{R1: e.R1, R2: e.R2, Chord: e.Chord, Twist: e.Twist, Axial: e.Axial, Angular: e.Angular}
	}
	b, err := calculator.RestoreBlade(polar, rec.BladeCount, rec.Radius, geometry, cfg)
	if err != nil {
		return nil, rec, err
	}
	b.Torque = rec.Torque
	b.WindSpeed, b.RotorSpeed, b.TargetTorque = rec.WindSpeed, rec.RotorSpeed, rec.TargetTorque
	return b, rec, nil
}

// Recent 最近保存的叶片，不含叶素
func (s *Service) Recent(limit int) ([]BladeRecord, error) {
	var records []BladeRecord
	err := s.db.Order("created_at desc").Limit(limit).Find(&records).Error
	return records, err
}

func (s *Service) Delete(id string) error {
	res := s.db.Select("Elements").Delete(&BladeRecord{ID: id})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}
