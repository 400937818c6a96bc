package main

import (
	"fmt"
	"log"
	"os"

	"examcraft-be/internal/model"
	"examcraft-be/pkg/database"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "examctl",
		Short: "Operational CLI for the ExamCraft backend",
	}
	root.AddCommand(papersCmd(), docsCmd(), usersCmd(), evalsCmd())
	return root
}

func openDB() *gorm.DB {
	if err := godotenv.Load(); err != nil {
		log.Println("Info: No .env file found, using system env")
	}
	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		color.Red("DB_CONNECTION_STRING is not set")
		os.Exit(1)
	}
	db, err := database.NewGormDBFromDSN(dsn)
	if err != nil {
		color.Red("Failed to connect to database: %v", err)
		os.Exit(1)
	}
	return db
}

func papersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "papers",
		Short: "List exam papers",
		RunE: func(cmd *cobra.Command, args []string) error {
			status, _ := cmd.Flags().GetString("status")
			db := openDB()

			q := db.Model(&model.Paper{}).Order("created_at DESC")
			if status != "" {
				q = q.Where("status = ?", status)
			}
			var papers []model.Paper
			if err := q.Find(&papers).Error; err != nil {
				return err
			}

			color.Cyan("%-38s %-40s %-12s %6s %6s", "ID", "TITLE", "STATUS", "MARKS", "FAILED")
			for _, p := range papers {
				line := fmt.Sprintf("%-38s %-40s %-12s %6d %6d", p.Id, truncate(p.Title, 40), p.Status, p.TotalMarks, p.FailedSlots)
				switch p.Status {
				case "published":
					color.Green(line)
				case "draft":
					color.Yellow(line)
				default:
					fmt.Println(line)
				}
			}
			color.Cyan("%d paper(s)", len(papers))
			return nil
		},
	}
	cmd.Flags().String("status", "", "Filter by status (draft, approved, published, archived)")
	return cmd
}

func docsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "docs",
		Short: "List corpus documents and their ingestion status",
		RunE: func(cmd *cobra.Command, args []string) error {
			sourceType, _ := cmd.Flags().GetString("type")
			failedOnly, _ := cmd.Flags().GetBool("failed")
			db := openDB()

			q := db.Model(&model.SourceDocument{}).Order("created_at DESC")
			if sourceType != "" {
				q = q.Where("source_type = ?", sourceType)
			}
			if failedOnly {
				q = q.Where("status = ?", "failed")
			}
			var docs []model.SourceDocument
			if err := q.Find(&docs).Error; err != nil {
				return err
			}

			color.Cyan("%-38s %-35s %-12s %-10s %7s", "ID", "TITLE", "TYPE", "STATUS", "CHUNKS")
			for _, d := range docs {
				line := fmt.Sprintf("%-38s %-35s %-12s %-10s %7d", d.Id, truncate(d.Title, 35), d.SourceType, d.Status, d.ChunkCount)
				switch d.Status {
				case "ready":
					color.Green(line)
				case "failed":
					color.Red(line)
					if d.FailureReason != nil {
						color.Red("    reason: %s", *d.FailureReason)
					}
				default:
					color.Yellow(line)
				}
			}
			color.Cyan("%d document(s)", len(docs))
			return nil
		},
	}
	cmd.Flags().String("type", "", "Filter by source type (past_paper, textbook, mark_scheme)")
	cmd.Flags().Bool("failed", false, "Show only failed ingestions")
	return cmd
}

func usersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "Manage user accounts",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List users",
		RunE: func(cmd *cobra.Command, args []string) error {
			role, _ := cmd.Flags().GetString("role")
			db := openDB()

			q := db.Model(&model.User{}).Order("created_at DESC")
			if role != "" {
				q = q.Where("role = ?", role)
			}
			var users []model.User
			if err := q.Find(&users).Error; err != nil {
				return err
			}

			color.Cyan("%-38s %-35s %-12s %-10s", "ID", "EMAIL", "ROLE", "STATUS")
			for _, u := range users {
				fmt.Printf("%-38s %-35s %-12s %-10s\n", u.Id, truncate(u.Email, 35), u.Role, u.Status)
			}
			color.Cyan("%d user(s)", len(users))
			return nil
		},
	}
	list.Flags().String("role", "", "Filter by role (student, instructor, admin)")

	promote := &cobra.Command{
		Use:   "promote <email>",
		Short: "Change a user's role",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			role, _ := cmd.Flags().GetString("role")
			if role != "student" && role != "instructor" && role != "admin" {
				return fmt.Errorf("invalid role: %s", role)
			}
			db := openDB()

			var user model.User
			if err := db.Where("email = ?", args[0]).First(&user).Error; err != nil {
				return fmt.Errorf("user not found: %s", args[0])
			}
			if err := db.Model(&user).Update("role", role).Error; err != nil {
				return err
			}
			color.Green("Updated %s to role %s", user.Email, role)
			return nil
		},
	}
	promote.Flags().String("role", "instructor", "Target role (student, instructor, admin)")

	cmd.AddCommand(list, promote)
	return cmd
}

func evalsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "evals",
		Short: "List evaluation runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			db := openDB()

			var runs []model.EvaluationRun
			if err := db.Order("created_at DESC").Limit(20).Find(&runs).Error; err != nil {
				return err
			}

			color.Cyan("%-38s %-10s %-10s %8s %8s", "ID", "TARGET", "STATUS", "SCORE", "SAMPLES")
			for _, r := range runs {
				line := fmt.Sprintf("%-38s %-10s %-10s %8.3f %8d", r.Id, r.Target, r.Status, r.OverallScore, r.SampleCount)
				switch r.Status {
				case "completed":
					color.Green(line)
				case "failed":
					color.Red(line)
				default:
					color.Yellow(line)
				}
			}
			color.Cyan("%d run(s)", len(runs))
			return nil
		},
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}
