package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/spf13/viper"
	mysqlDriver "gorm.io/driver/mysql"
	"gorm.io/gorm"

	"github.com/facultyhub/faculty-status/internal/adapters/out/db"
	"github.com/facultyhub/faculty-status/internal/domain/entity"
)

type seedFaculty struct {
	FacultyID      string
	Name           string
	Email          string
	Department     string
	OfficeLocation string
	Phone          string
	Status         string // 两位二进制编码
	Note           string
}

// 示例数据，方便本地起环境后直接能看到目录页
var sampleFaculty = []seedFaculty{
	{"FAC001", "Dr. Sarah Johnson", "sarah.johnson@university.edu", "Computer Science", "CS Building, Room 301", "+1-555-0101", "00", "Office hours until 4 PM"},
	{"FAC002", "Prof. Michael Chen", "michael.chen@university.edu", "Computer Science", "CS Building, Room 205", "+1-555-0102", "01", "In meeting until 3:30 PM"},
	{"FAC003", "Dr. Emily Rodriguez", "emily.rodriguez@university.edu", "Mathematics", "Math Building, Room 410", "+1-555-0103", "00", "Available for student consultation"},
	{"FAC004", "Prof. David Thompson", "david.thompson@university.edu", "Physics", "Physics Building, Room 102", "+1-555-0104", "10", "At conference, back tomorrow"},
	{"FAC005", "Dr. Lisa Wang", "lisa.wang@university.edu", "Computer Science", "CS Building, Room 315", "+1-555-0105", "01", "Teaching lab session"},
	{"FAC006", "Prof. Robert Miller", "robert.miller@university.edu", "Engineering", "Engineering Building, Room 501", "+1-555-0106", "00", "Drop by anytime"},
	{"FAC007", "Dr. Jennifer Brown", "jennifer.brown@university.edu", "Mathematics", "Math Building, Room 220", "+1-555-0107", "11", "Off campus today"},
	{"FAC008", "Prof. James Wilson", "james.wilson@university.edu", "Physics", "Physics Building, Room 315", "+1-555-0108", "00", "Available for research discussions"},
	{"FAC009", "Dr. Amanda Davis", "amanda.davis@university.edu", "Engineering", "Engineering Building, Room 203", "+1-555-0109", "01", "Student meetings until 5 PM"},
	{"FAC010", "Prof. Kevin Lee", "kevin.lee@university.edu", "Computer Science", "CS Building, Room 425", "+1-555-0110", "10", "In departmental meeting"},
}

func main() {
	cfgPath := flag.String("config", "", "配置文件路径，空则按 APP_ENV 查找")
	flag.Parse()

	dsn, err := loadDSN(*cfgPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	database, err := gorm.Open(mysqlDriver.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatalf("Failed to connect database: %v", err)
	}
	if err := database.AutoMigrate(&db.FacultyModel{}, &db.StatusModel{}); err != nil {
		log.Fatalf("Failed to migrate: %v", err)
	}

	facultyRepo := db.NewFacultyRepositoryMySQL(database)
	statusRepo := db.NewStatusRepositoryMySQL(database)
	ctx := context.Background()

	created, skipped := 0, 0
	for _, s := range sampleFaculty {
		existing, err := facultyRepo.GetByID(ctx, s.FacultyID)
		if err != nil {
			log.Fatalf("Failed to query faculty %s: %v", s.FacultyID, err)
		}
		if existing == nil {
			err = facultyRepo.Create(ctx, &entity.Faculty{
				FacultyID:      s.FacultyID,
				Name:           s.Name,
				Email:          s.Email,
				Department:     s.Department,
				OfficeLocation: s.OfficeLocation,
				Phone:          s.Phone,
			})
			if err != nil {
				log.Fatalf("Failed to create faculty %s: %v", s.FacultyID, err)
			}
			created++
		} else {
			skipped++
		}

		code, err := entity.ParseStatusBinary(s.Status)
		if err != nil {
			log.Fatalf("Bad seed status for %s: %v", s.FacultyID, err)
		}
		if _, err := statusRepo.Upsert(ctx, s.FacultyID, code, s.Note); err != nil {
			log.Fatalf("Failed to set status for %s: %v", s.FacultyID, err)
		}
	}

	fmt.Printf("Seeding done: %d faculty created, %d already existed, %d statuses set\n",
		created, skipped, len(sampleFaculty))
}

func loadDSN(path string) (string, error) {
	if path != "" {
		viper.SetConfigFile(path)
	} else {
		env := os.Getenv("APP_ENV")
		if env == "" {
			env = "dev"
		}
		viper.SetConfigName(fmt.Sprintf("config.%s", env))
		viper.SetConfigType("yaml")
		viper.AddConfigPath("./configs")
		viper.AddConfigPath("../configs")
		viper.AddConfigPath("../../configs")
	}
	if err := viper.ReadInConfig(); err != nil {
		return "", err
	}
	dsn := viper.GetString("mysql.dsn")
	if dsn == "" {
		return "", fmt.Errorf("mysql.dsn is empty")
	}
	return dsn, nil
}
