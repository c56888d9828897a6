// timeclockctl 考勤系统运维命令行，由外部调度器（cron / k8s CronJob）调用
package main

func main() {
	Execute()
}
